package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/internal/catalog"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
	"github.com/angelmondragon/supplychain-backend/pkg/pagination"
)

// Service covers profile self-service and admin user management.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, input ProfileUpdate) (*models.User, error)
	UpdateInventory(ctx context.Context, id uuid.UUID, items []InventoryItemInput) (*models.User, error)
	SubmitVerification(ctx context.Context, id uuid.UUID, input VerificationInput) (*models.User, error)
	ReviewVerification(ctx context.Context, id uuid.UUID, decision string) (*models.User, error)
	AdminUpdate(ctx context.Context, id uuid.UUID, input AdminUpdate) (*models.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.User, error)
	ListByRole(ctx context.Context, role enums.Role, activeOnly bool) ([]models.User, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	return &service{repo: repo, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

// UpdateProfile changes the caller's own profile. Orders already placed keep
// the kitchen address they were created with.
func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, input ProfileUpdate) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	columns, err := applyProfile(user, input)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return user, nil
	}
	if err := s.repo.Update(ctx, user, columns...); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	return user, nil
}

func applyProfile(user *models.User, input ProfileUpdate) ([]string, error) {
	var columns []string
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		user.Name = name
		columns = append(columns, "name")
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
		columns = append(columns, "phone")
	}
	if input.BusinessName != nil {
		business := strings.TrimSpace(*input.BusinessName)
		if business == "" {
			user.BusinessName = nil
		} else {
			user.BusinessName = &business
		}
		columns = append(columns, "business_name")
	}
	if input.Address != nil {
		if input.Address.Coordinates != nil {
			if err := input.Address.Coordinates.Validate(); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address")
			}
		}
		user.Address = *input.Address
		columns = append(columns, "address")
	}
	if input.SubRole != nil {
		raw := strings.TrimSpace(*input.SubRole)
		if raw == "" {
			user.SubRole = nil
		} else {
			sub, err := enums.ParseSubRole(user.Role, raw)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sub role")
			}
			user.SubRole = &sub
		}
		columns = append(columns, "sub_role")
	}
	return columns, nil
}

// UpdateInventory replaces a vendor's inventory list.
func (s *service) UpdateInventory(ctx context.Context, id uuid.UUID, items []InventoryItemInput) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role != enums.RoleVendor {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only vendors manage inventory")
	}

	inventory := make([]models.VendorInventoryItem, 0, len(items))
	for i, input := range items {
		item, err := resolveInventoryItem(input)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid inventory item").
				WithDetails(map[string]any{"index": i})
		}
		inventory = append(inventory, item)
	}

	user.Inventory = inventory
	if err := s.repo.Update(ctx, user, "inventory"); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update inventory")
	}
	return user, nil
}

func resolveInventoryItem(input InventoryItemInput) (models.VendorInventoryItem, error) {
	item := models.VendorInventoryItem{
		ID:        strings.TrimSpace(input.ID),
		ProductID: strings.TrimSpace(input.ProductID),
		Name:      strings.TrimSpace(input.Name),
		Category:  enums.Category(strings.TrimSpace(input.Category)),
		Unit:      strings.TrimSpace(input.Unit),
		Price:     input.Price,
		InStock:   input.InStock,
	}
	if item.ProductID == "" {
		return item, errors.New("productId is required")
	}
	if product, ok := catalog.Lookup(item.ProductID); ok {
		if item.Name == "" {
			item.Name = product.Name
		}
		if item.Category == "" {
			item.Category = product.Category
		}
		if item.Unit == "" {
			item.Unit = product.Unit
		}
	}
	if item.Name == "" || item.Unit == "" {
		return item, errors.New("name and unit are required for products outside the catalog")
	}
	if !item.Category.IsValid() {
		return item, errors.New("invalid category")
	}
	if item.Price.IsNegative() {
		return item, errors.New("price cannot be negative")
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	return item, nil
}

// SubmitVerification records a transporter's documents for review. The
// status is always reset to pending.
func (s *service) SubmitVerification(ctx context.Context, id uuid.UUID, input VerificationInput) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role != enums.RoleTransporter {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only transporters submit verification")
	}
	license := strings.TrimSpace(input.LicenseNumber)
	rc := strings.TrimSpace(input.RCNumber)
	if license == "" || rc == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "licenseNumber and rcNumber are required")
	}

	details := &models.VerificationDetails{
		LicenseNumber: license,
		RCNumber:      rc,
		Status:        enums.VerificationStatusPending,
		SubmittedAt:   s.now(),
	}
	if input.VehicleNumber != nil {
		if v := strings.TrimSpace(*input.VehicleNumber); v != "" {
			details.VehicleNumber = &v
		}
	}
	user.VerificationDetails = details
	if err := s.repo.Update(ctx, user, "verification_details"); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "submit verification")
	}
	return user, nil
}

func (s *service) ReviewVerification(ctx context.Context, id uuid.UUID, decision string) (*models.User, error) {
	status, err := enums.ParseReviewDecision(strings.TrimSpace(decision))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid verification status")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.VerificationDetails == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no verification submitted")
	}
	now := s.now()
	user.VerificationDetails.Status = status
	user.VerificationDetails.ReviewedAt = &now
	if err := s.repo.Update(ctx, user, "verification_details"); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "review verification")
	}
	return user, nil
}

func (s *service) AdminUpdate(ctx context.Context, id uuid.UUID, input AdminUpdate) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	columns, err := applyProfile(user, input.ProfileUpdate)
	if err != nil {
		return nil, err
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
		columns = append(columns, "is_active")
	}
	if len(columns) == 0 {
		return user, nil
	}
	if err := s.repo.Update(ctx, user, columns...); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	return user, nil
}

// SetActive is the soft delete switch; users are never removed.
func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsActive == active {
		return user, nil
	}
	user.IsActive = active
	if err := s.repo.Update(ctx, user, "is_active"); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user status")
	}
	return user, nil
}

func (s *service) ListByRole(ctx context.Context, role enums.Role, activeOnly bool) ([]models.User, error) {
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	rows, err := s.repo.ListByRole(ctx, role, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	return rows, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listUsersParams{Limit: params.Limit}
	if raw := strings.TrimSpace(params.Role); raw != "" {
		role, err := enums.ParseRole(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role")
		}
		query.Role = &role
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	query.Cursor = cursor

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	result := &ListResult{Items: FromModels(rows)}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}
