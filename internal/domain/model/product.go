package model

import (
	"time"

	"skynet-vpn-store/internal/domain"

	"github.com/google/uuid"
)

// VPNProduct is a catalog item: one configuration family (e.g. "HTTP Custom").
// Catalog rows are effectively static reference data at runtime.
type VPNProduct struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Features    []string  `json:"features"`
	ImageURL    string    `json:"image_url"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewVPNProduct(id, name, description string, features []string, imageURL string) (*VPNProduct, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if name == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &VPNProduct{
		ID:          id,
		Name:        name,
		Description: description,
		Features:    features,
		ImageURL:    imageURL,
		IsAvailable: true,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func (p *VPNProduct) IsZero() bool { return p == nil || p.ID == "" }
