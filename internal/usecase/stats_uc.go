package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"skynet-vpn-store/internal/domain/model"
	"skynet-vpn-store/internal/domain/ports/repository"
)

var _ StatsUseCase = (*statsUC)(nil)

type MonthCount struct {
	Month string `json:"month"` // "M/YYYY"
	Count int    `json:"count"`
}

type ProductCount struct {
	ProductName string `json:"product_name"`
	Count       int    `json:"count"`
}

type DurationCount struct {
	Duration model.Duration `json:"duration"`
	Count    int            `json:"count"`
}

type Overview struct {
	TotalBuyers         int             `json:"total_buyers"`
	TotalPurchases      int             `json:"total_purchases"`
	ActivePurchases     int             `json:"active_purchases"`
	PendingConfigs      int             `json:"pending_configs"`
	EntitledPurchases   int             `json:"entitled_purchases"`
	GrossRevenueKES     int             `json:"gross_revenue_kes"`
	PurchasesByMonth    []MonthCount    `json:"purchases_by_month"`
	PurchasesByProduct  []ProductCount  `json:"purchases_by_product"`
	PurchasesByDuration []DurationCount `json:"purchases_by_duration"`
}

type StatsUseCase interface {
	// Overview aggregates the whole purchase ledger in memory.
	Overview(ctx context.Context) (*Overview, error)
	// Ledger returns every purchase joined with catalog and buyer details,
	// most recent first.
	Ledger(ctx context.Context) ([]*model.PurchaseDetail, error)
}

type statsUC struct {
	purchases repository.PurchaseRepository
	log       *zerolog.Logger
	now       func() time.Time
}

func NewStatsUseCase(purchases repository.PurchaseRepository, logger *zerolog.Logger) *statsUC {
	l := logger.With().Str("component", "StatsUC").Logger()
	return &statsUC{purchases: purchases, log: &l, now: time.Now}
}

func (u *statsUC) Ledger(ctx context.Context) ([]*model.PurchaseDetail, error) {
	return u.purchases.ListDetails(ctx, nil)
}

func (u *statsUC) Overview(ctx context.Context) (*Overview, error) {
	details, err := u.purchases.ListDetails(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list purchase details: %w", err)
	}

	now := u.now()
	buyers := map[string]struct{}{}
	byMonth := map[string]int{}
	monthStart := map[string]time.Time{}
	byProduct := map[string]int{}
	byDuration := map[model.Duration]int{}

	ov := &Overview{}
	ov.TotalPurchases = len(details)

	for _, d := range details {
		buyers[d.UserID] = struct{}{}
		ov.GrossRevenueKES += grossRevenueContribution(d)

		switch d.Status {
		case model.PurchaseStatusActive:
			ov.ActivePurchases++
		case model.PurchaseStatusPending:
			if d.ConfigFileURL == nil || *d.ConfigFileURL == "" {
				ov.PendingConfigs++
			}
		}
		if d.Entitled(now) {
			ov.EntitledPurchases++
		}

		m := fmt.Sprintf("%d/%d", int(d.PurchasedAt.Month()), d.PurchasedAt.Year())
		byMonth[m]++
		if _, ok := monthStart[m]; !ok {
			monthStart[m] = time.Date(d.PurchasedAt.Year(), d.PurchasedAt.Month(), 1, 0, 0, 0, 0, time.UTC)
		}
		byProduct[d.ProductName]++
		byDuration[d.Duration]++
	}

	ov.TotalBuyers = len(buyers)

	for m, c := range byMonth {
		ov.PurchasesByMonth = append(ov.PurchasesByMonth, MonthCount{Month: m, Count: c})
	}
	sort.Slice(ov.PurchasesByMonth, func(i, j int) bool {
		return monthStart[ov.PurchasesByMonth[i].Month].Before(monthStart[ov.PurchasesByMonth[j].Month])
	})

	for name, c := range byProduct {
		ov.PurchasesByProduct = append(ov.PurchasesByProduct, ProductCount{ProductName: name, Count: c})
	}
	sort.Slice(ov.PurchasesByProduct, func(i, j int) bool {
		return ov.PurchasesByProduct[i].ProductName < ov.PurchasesByProduct[j].ProductName
	})

	for _, dur := range []model.Duration{model.Duration3Days, model.DurationWeekly, model.Duration2Weeks, model.DurationMonthly} {
		if c, ok := byDuration[dur]; ok {
			ov.PurchasesByDuration = append(ov.PurchasesByDuration, DurationCount{Duration: dur, Count: c})
			delete(byDuration, dur)
		}
	}
	// Anything left is a duration no longer sold; sort so the tail is stable
	// across requests.
	rest := make([]model.Duration, 0, len(byDuration))
	for dur := range byDuration {
		rest = append(rest, dur)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	for _, dur := range rest {
		ov.PurchasesByDuration = append(ov.PurchasesByDuration, DurationCount{Duration: dur, Count: byDuration[dur]})
	}

	return ov, nil
}

// grossRevenueContribution counts every ledger row at its plan price,
// regardless of settlement status. Failed and still-pending purchases
// therefore inflate the figure; the dashboard has always reported it this
// way and operators read it as "attempted volume", so the rule is kept.
func grossRevenueContribution(d *model.PurchaseDetail) int {
	return d.PriceKES
}
