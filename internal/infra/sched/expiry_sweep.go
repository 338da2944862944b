package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"skynet-vpn-store/internal/domain/ports/repository"
	"skynet-vpn-store/internal/infra/metrics"
)

// ExpirySweep periodically counts active purchases whose expiry has passed.
// Expiry is derived at read time, so the sweep is strictly read-only; it only
// feeds the gauge and the log.
type ExpirySweep struct {
	interval  time.Duration
	purchases repository.PurchaseRepository
	log       *zerolog.Logger
}

func NewExpirySweep(interval time.Duration, purchases repository.PurchaseRepository, logger *zerolog.Logger) *ExpirySweep {
	sweepLog := logger.With().Str("component", "ExpirySweep").Logger()
	return &ExpirySweep{
		interval:  interval,
		purchases: purchases,
		log:       &sweepLog,
	}
}

func (w *ExpirySweep) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting expiry sweep")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry sweep")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.purchases.CountDecayed(ctx, nil, time.Now())
			if err != nil {
				w.log.Error().Err(err).Msg("expiry sweep error")
				continue
			}
			metrics.SetDecayedActive(n)
			if n > 0 {
				w.log.Info().Int("count", n).Msg("active purchases past expiry")
			}
		}
	}
}
