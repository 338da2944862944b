package model

import (
	"time"

	"skynet-vpn-store/internal/domain"

	"github.com/google/uuid"
)

// Profile is a registered storefront account. The HWID is a device-binding
// token set at registration and changeable by the account owner; it is used
// for manual license-to-device association and is not cryptographically
// enforced.
type Profile struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	HWID         string    `json:"hwid"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewProfile(id, email, username, hwid, passwordHash string) (*Profile, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if email == "" || passwordHash == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now().UTC()
	return &Profile{
		ID:           id,
		Email:        email,
		Username:     username,
		HWID:         hwid,
		PasswordHash: passwordHash,
		IsAdmin:      false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (p *Profile) IsZero() bool { return p == nil || p.ID == "" }
