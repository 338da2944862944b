package model

import (
	"time"

	"skynet-vpn-store/internal/domain"

	"github.com/google/uuid"
)

// Duration is the closed set of plan durations sold by the storefront.
type Duration string

const (
	Duration3Days   Duration = "3days"
	DurationWeekly  Duration = "weekly"
	Duration2Weeks  Duration = "2weeks"
	DurationMonthly Duration = "monthly"
)

// durationDays maps fixed-length durations to a day offset. Monthly is
// calendar-based and handled separately in ExpiryFrom.
var durationDays = map[Duration]int{
	Duration3Days:  3,
	DurationWeekly: 7,
	Duration2Weeks: 14,
}

// DefaultPriceKES is the canonical duration -> price table surfaced in the UI.
var DefaultPriceKES = map[Duration]int{
	Duration3Days:   50,
	DurationWeekly:  100,
	Duration2Weeks:  200,
	DurationMonthly: 300,
}

// ExpiryFrom computes the entitlement expiry for a purchase made at start.
// Unknown durations fall back to one calendar month.
func (d Duration) ExpiryFrom(start time.Time) time.Time {
	if days, ok := durationDays[d]; ok {
		return start.AddDate(0, 0, days)
	}
	return start.AddDate(0, 1, 0)
}

func (d Duration) Valid() bool {
	switch d {
	case Duration3Days, DurationWeekly, Duration2Weeks, DurationMonthly:
		return true
	}
	return false
}

// SubscriptionPlan is a (product, duration, price) tuple. Plans are immutable
// once created.
type SubscriptionPlan struct {
	ID        string    `json:"id"`
	ProductID string    `json:"vpn_id"`
	Duration  Duration  `json:"duration"`
	PriceKES  int       `json:"price_kes"`
	CreatedAt time.Time `json:"created_at"`
}

func NewSubscriptionPlan(id, productID string, duration Duration, priceKES int) (*SubscriptionPlan, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if productID == "" || !duration.Valid() || priceKES <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &SubscriptionPlan{
		ID:        id,
		ProductID: productID,
		Duration:  duration,
		PriceKES:  priceKES,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (p *SubscriptionPlan) IsZero() bool { return p == nil || p.ID == "" }
