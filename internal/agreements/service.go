// Package agreements maintains the symmetric trust links between parties.
// A link is stored on both users; both sides are always written together.
package agreements

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/internal/users"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
	"github.com/angelmondragon/supplychain-backend/pkg/keylock"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
)

const (
	msgUserNotFound  = "User not found"
	msgAlreadyExists = "Agreement already exists"
)

type Service interface {
	Establish(ctx context.Context, requesterID uuid.UUID, target string) (*EstablishResult, error)
	ListPartners(ctx context.Context, userID uuid.UUID, role string) ([]users.PartnerDTO, error)
	HasAgreement(ctx context.Context, a, b uuid.UUID) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// EstablishResult mirrors the success/message shape UI collaborators expect.
type EstablishResult struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Partner *users.PartnerDTO `json:"partner,omitempty"`
}

type service struct {
	repo   users.Repository
	tx     txRunner
	locker keylock.Locker
	logg   *logger.Logger
}

func NewService(repo users.Repository, tx txRunner, locker keylock.Locker, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if locker == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "key locker required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, tx: tx, locker: locker, logg: logg}, nil
}

// Establish links requester and target, where target is either the public
// unique id or the internal id. The pair is serialised under one lock and
// both sets are written in one transaction.
func (s *service) Establish(ctx context.Context, requesterID uuid.UUID, target string) (*EstablishResult, error) {
	if requesterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Not authenticated")
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target user id is required")
	}

	targetUser, err := s.resolve(ctx, target)
	if err != nil {
		return nil, err
	}
	if targetUser.ID == requesterID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Cannot create an agreement with yourself")
	}

	release, err := s.lockPair(ctx, requesterID, targetUser.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	var partner *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		requester, err := repo.FindByID(ctx, requesterID)
		if err != nil {
			return notFoundOr(err, "load requester")
		}
		other, err := repo.FindByID(ctx, targetUser.ID)
		if err != nil {
			return notFoundOr(err, "load target")
		}
		if requester.HasPartner(other.ID) || other.HasPartner(requester.ID) {
			return pkgerrors.New(pkgerrors.CodeConflict, msgAlreadyExists)
		}

		requester.Agreements = append(requester.Agreements, other.ID)
		other.Agreements = append(other.Agreements, requester.ID)
		if err := repo.Update(ctx, requester, "agreements"); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update requester agreements")
		}
		if err := repo.Update(ctx, other, "agreements"); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update target agreements")
		}
		partner = other
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"requester_id": requesterID.String(),
		"partner_id":   partner.ID.String(),
	})
	s.logg.Info(logCtx, "agreement established")

	dto := users.PartnerFromModel(partner)
	return &EstablishResult{
		Success: true,
		Message: "Agreement established with " + partner.Name,
		Partner: &dto,
	}, nil
}

// lockPair holds the pair key and then each user key in id order, so two
// agreements touching the same user cannot overwrite each other's set.
func (s *service) lockPair(ctx context.Context, a, b uuid.UUID) (func(), error) {
	keys := []string{keylock.UserKey(a), keylock.UserKey(b)}
	sort.Strings(keys)
	keys = append([]string{keylock.AgreementKey(a, b)}, keys...)

	releases := make([]keylock.Release, 0, len(keys))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, key := range keys {
		release, err := s.locker.Lock(ctx, key)
		if err != nil {
			releaseAll()
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire agreement lock")
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}

func (s *service) resolve(ctx context.Context, target string) (*models.User, error) {
	user, err := s.repo.FindByUniqueID(ctx, target)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve target")
	}
	id, parseErr := uuid.Parse(target)
	if parseErr != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgUserNotFound)
	}
	user, err = s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "resolve target")
	}
	return user, nil
}

// ListPartners returns the user's partners, optionally narrowed to role.
func (s *service) ListPartners(ctx context.Context, userID uuid.UUID, role string) ([]users.PartnerDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "load user")
	}
	var filter enums.Role
	if raw := strings.TrimSpace(role); raw != "" {
		filter, err = enums.ParseRole(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role")
		}
	}

	partners, err := s.repo.FindByIDs(ctx, user.Agreements)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load partners")
	}
	out := make([]users.PartnerDTO, 0, len(partners))
	for i := range partners {
		if filter != "" && partners[i].Role != filter {
			continue
		}
		out = append(out, users.PartnerFromModel(&partners[i]))
	}
	return out, nil
}

// HasAgreement accepts a link recorded on either side.
func (s *service) HasAgreement(ctx context.Context, a, b uuid.UUID) (bool, error) {
	found, err := s.repo.FindByIDs(ctx, []uuid.UUID{a, b})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load users")
	}
	return Linked(found, a, b), nil
}

// Linked reports whether a and b are partners according to any of the
// given user rows.
func Linked(rows []models.User, a, b uuid.UUID) bool {
	for i := range rows {
		switch rows[i].ID {
		case a:
			if rows[i].HasPartner(b) {
				return true
			}
		case b:
			if rows[i].HasPartner(a) {
				return true
			}
		}
	}
	return false
}

func notFoundOr(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, msgUserNotFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
