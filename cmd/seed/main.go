package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"github.com/jackc/pgx/v4"

	"skynet-vpn-store/internal/config"
	"skynet-vpn-store/internal/domain"
	"skynet-vpn-store/internal/domain/model"
	"skynet-vpn-store/internal/domain/ports/repository"
	pg "skynet-vpn-store/internal/infra/db/postgres"
	"skynet-vpn-store/internal/usecase"
)

// schema is applied idempotently on every run. Schema evolution beyond this
// is handled out of band.
const schema = `
CREATE TABLE IF NOT EXISTS profiles (
    id            TEXT PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    username      TEXT NOT NULL DEFAULT '',
    hwid          TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS vpn_products (
    id           TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    features     JSONB NOT NULL DEFAULT '[]',
    image_url    TEXT NOT NULL DEFAULT '',
    is_available BOOLEAN NOT NULL DEFAULT TRUE,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS subscription_plans (
    id         TEXT PRIMARY KEY,
    vpn_id     TEXT NOT NULL REFERENCES vpn_products(id),
    duration   TEXT NOT NULL,
    price      INTEGER NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (vpn_id, duration)
);

CREATE TABLE IF NOT EXISTS purchases (
    id              TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL REFERENCES profiles(id),
    vpn_id          TEXT NOT NULL REFERENCES vpn_products(id),
    plan_id         TEXT NOT NULL REFERENCES subscription_plans(id),
    status          TEXT NOT NULL DEFAULT 'pending',
    config_file_url TEXT,
    payment_id      TEXT,
    purchased_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    expires_at      TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_purchases_match
    ON purchases (user_id, vpn_id, plan_id, status);
`

type stockProduct struct {
	name        string
	description string
	features    []string
}

var stock = []stockProduct{
	{
		name:        "HTTP Custom",
		description: "Tunnel configurations for the HTTP Custom client.",
		features:    []string{"Unlimited bandwidth", "SSH + SSL tunneling", "Custom payloads"},
	},
	{
		name:        "HTTP Injector",
		description: "Tunnel configurations for the HTTP Injector client.",
		features:    []string{"Unlimited bandwidth", "SSH tunneling", "Payload generator support"},
	},
	{
		name:        "Dark Tunnel",
		description: "Tunnel configurations for the Dark Tunnel client.",
		features:    []string{"Unlimited bandwidth", "SNI tunneling", "Low-latency servers"},
	},
}

var durations = []model.Duration{
	model.Duration3Days,
	model.DurationWeekly,
	model.Duration2Weeks,
	model.DurationMonthly,
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	adminEmail := flag.String("admin-email", "", "account to grant the admin flag (registered if absent)")
	adminPassword := flag.String("admin-password", "", "password for the admin account when it does not exist yet")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 2)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatalf("apply schema: %v", err)
	}

	productRepo := pg.NewProductRepo(pool)
	planRepo := pg.NewPlanRepo(pool)
	tm := pg.NewTxManager(pool)

	existing, err := productRepo.ListAll(ctx, nil)
	if err != nil {
		log.Fatalf("list products: %v", err)
	}
	have := make(map[string]bool, len(existing))
	for _, p := range existing {
		have[p.Name] = true
	}

	for _, s := range stock {
		if have[s.name] {
			log.Printf("product %q already present, skipping", s.name)
			continue
		}
		// Each product and its plans land atomically.
		err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			product, err := model.NewVPNProduct("", s.name, s.description, s.features, "")
			if err != nil {
				return err
			}
			if err := productRepo.Save(ctx, tx, product); err != nil {
				return err
			}
			for _, d := range durations {
				plan, err := model.NewSubscriptionPlan("", product.ID, d, model.DefaultPriceKES[d])
				if err != nil {
					return err
				}
				if err := planRepo.Save(ctx, tx, plan); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			log.Fatalf("seed product %q: %v", s.name, err)
		}
		log.Printf("seeded product %q with %d plans", s.name, len(durations))
	}

	// The admin flag is only ever set here; the HTTP surface has no route
	// that can grant it.
	if *adminEmail != "" {
		accounts := usecase.NewAccountUseCase(pg.NewProfileRepo(pool))
		err := accounts.GrantAdmin(ctx, *adminEmail)
		if errors.Is(err, domain.ErrNotFound) {
			if _, err = accounts.Register(ctx, *adminEmail, *adminPassword, "admin", ""); err != nil {
				if errors.Is(err, domain.ErrInvalidArgument) {
					log.Fatalf("register admin %q: password must be at least 8 characters", *adminEmail)
				}
				log.Fatalf("register admin %q: %v", *adminEmail, err)
			}
			err = accounts.GrantAdmin(ctx, *adminEmail)
		}
		if err != nil {
			log.Fatalf("grant admin %q: %v", *adminEmail, err)
		}
		log.Printf("granted admin to %q", *adminEmail)
	}
}
