package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"skynet-vpn-store/internal/domain"
	"skynet-vpn-store/internal/domain/model"
	"skynet-vpn-store/internal/domain/ports/repository"
)

var _ AccountUseCase = (*accountUC)(nil)

type AccountUseCase interface {
	Register(ctx context.Context, email, password, username, hwid string) (*model.Profile, error)
	Authenticate(ctx context.Context, email, password string) (*model.Profile, error)
	Get(ctx context.Context, id string) (*model.Profile, error)
	UpdateHWID(ctx context.Context, userID, hwid string) error
	// IsAdmin is the single authorization predicate for privileged routes.
	IsAdmin(ctx context.Context, userID string) (bool, error)
	// GrantAdmin flips the privileged flag for the account registered under
	// email. It is reachable only from the bootstrap tooling; there is no
	// HTTP route that calls it.
	GrantAdmin(ctx context.Context, email string) error
	List(ctx context.Context) ([]*model.Profile, error)
}

type accountUC struct {
	profiles repository.ProfileRepository
}

func NewAccountUseCase(profiles repository.ProfileRepository) *accountUC {
	return &accountUC{profiles: profiles}
}

func (u *accountUC) Register(ctx context.Context, email, password, username, hwid string) (*model.Profile, error) {
	if email == "" || len(password) < 8 {
		return nil, domain.ErrInvalidArgument
	}

	if _, err := u.profiles.FindByEmail(ctx, nil, email); err == nil {
		return nil, domain.ErrAlreadyExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup profile: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	p, err := model.NewProfile(uuid.NewString(), email, username, hwid, string(hash))
	if err != nil {
		return nil, err
	}
	if err := u.profiles.Save(ctx, nil, p); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

func (u *accountUC) Authenticate(ctx context.Context, email, password string) (*model.Profile, error) {
	p, err := u.profiles.FindByEmail(ctx, nil, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup profile: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return p, nil
}

func (u *accountUC) Get(ctx context.Context, id string) (*model.Profile, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.profiles.FindByID(ctx, nil, id)
}

func (u *accountUC) UpdateHWID(ctx context.Context, userID, hwid string) error {
	if userID == "" || hwid == "" {
		return domain.ErrInvalidArgument
	}
	return u.profiles.UpdateHWID(ctx, nil, userID, hwid)
}

func (u *accountUC) IsAdmin(ctx context.Context, userID string) (bool, error) {
	p, err := u.profiles.FindByID(ctx, nil, userID)
	if err != nil {
		return false, err
	}
	return p.IsAdmin, nil
}

func (u *accountUC) GrantAdmin(ctx context.Context, email string) error {
	if email == "" {
		return domain.ErrInvalidArgument
	}
	p, err := u.profiles.FindByEmail(ctx, nil, email)
	if err != nil {
		return fmt.Errorf("lookup profile: %w", err)
	}
	return u.profiles.SetAdmin(ctx, nil, p.ID, true)
}

func (u *accountUC) List(ctx context.Context) ([]*model.Profile, error) {
	return u.profiles.ListAll(ctx, nil)
}
