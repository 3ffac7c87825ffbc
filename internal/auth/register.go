package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/internal/users"
	"github.com/angelmondragon/supplychain-backend/pkg/config"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
	"github.com/angelmondragon/supplychain-backend/pkg/idgen"
	"github.com/angelmondragon/supplychain-backend/pkg/security"
)

const duplicateEmailMessage = "Email already registered"

// RegisterService handles self-service sign-up.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*models.User, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             txRunner
	UserRepo       users.Repository
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	db          txRunner
	users       users.Repository
	passwordCfg config.PasswordConfig
	uniqueID    func() (string, error)
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "database client required")
	}
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	return &registerService{
		db:          params.DB,
		users:       params.UserRepo,
		passwordCfg: params.PasswordConfig,
		uniqueID:    idgen.UniqueID,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	user, err := s.buildUser(req)
	if err != nil {
		return nil, err
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	user.PasswordHash = passwordHash

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		if _, err := repo.FindByEmail(ctx, user.Email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, duplicateEmailMessage)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		uniqueID, err := s.freeUniqueID(ctx, repo)
		if err != nil {
			return err
		}
		user.UniqueID = uniqueID

		if err := repo.Create(ctx, user); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *registerService) buildUser(req RegisterRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(req.Password) < security.MinPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	role, err := enums.ParseRole(strings.TrimSpace(req.Role))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role")
	}
	if role == enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin accounts cannot self-register")
	}

	user := &models.User{
		Email:    email,
		Name:     name,
		Phone:    strings.TrimSpace(req.Phone),
		Role:     role,
		Address:  req.Address,
		IsActive: true,
	}
	if req.SubRole != nil && strings.TrimSpace(*req.SubRole) != "" {
		sub, err := enums.ParseSubRole(role, strings.TrimSpace(*req.SubRole))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sub role")
		}
		user.SubRole = &sub
	}
	if req.BusinessName != nil {
		if business := strings.TrimSpace(*req.BusinessName); business != "" {
			user.BusinessName = &business
		}
	}
	return user, nil
}

// freeUniqueID retries on the rare collision with an existing public id.
func (s *registerService) freeUniqueID(ctx context.Context, repo users.Repository) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		candidate, err := s.uniqueID()
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate unique id")
		}
		_, err = repo.FindByUniqueID(ctx, candidate)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check unique id")
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "could not allocate unique id")
}
