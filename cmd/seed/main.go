// Package main seeds a demo tenant with a location, reviews and a scheduled
// post. Intended for local development against an empty database.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/localpulse/platform/internal/app/domain/review"
	"github.com/localpulse/platform/internal/app/domain/social"
	"github.com/localpulse/platform/internal/app/domain/tenant"
	"github.com/localpulse/platform/internal/app/services/locations"
	"github.com/localpulse/platform/internal/app/services/tenants"
	"github.com/localpulse/platform/internal/app/storage/postgres"
	"github.com/localpulse/platform/internal/config"
	"github.com/localpulse/platform/pkg/logger"
)

func main() {
	var (
		name    = flag.String("name", "Blue Door Bakery", "Demo tenant name")
		email   = flag.String("email", "demo@localpulse.dev", "Demo tenant owner email")
		address = flag.String("address", "12 Main St, Springfield", "Demo location address")
	)
	flag.Parse()

	log := logger.NewDefault("seed")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load configuration")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("connect to database")
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		log.WithError(err).Fatal("apply migrations")
	}
	store := postgres.New(db)

	tenantSvc := tenants.New(store, log)
	locationSvc := locations.New(store, nil, log)

	t, err := tenantSvc.Create(ctx, *name, *email, "starter")
	if err != nil {
		log.WithError(err).Fatal("create demo tenant")
	}
	if _, err := tenantSvc.AdvanceOnboarding(ctx, t.ID, tenant.StepDone); err != nil {
		log.WithError(err).Fatal("finish demo onboarding")
	}

	loc, err := locationSvc.Create(ctx, t.ID, locations.CreateInput{
		Name:     *name,
		Address:  *address,
		Category: "bakery",
	})
	if err != nil {
		log.WithError(err).Fatal("create demo location")
	}

	now := time.Now().UTC()
	samples := []review.Review{
		{
			LocationID: loc.ID,
			RemoteID:   "accounts/demo/locations/demo/reviews/seed-1",
			Author:     "Ana P.",
			Rating:     5,
			Comment:    "Best sourdough in town, friendly staff.",
			CreateTime: now.Add(-72 * time.Hour),
			UpdateTime: now.Add(-72 * time.Hour),
		},
		{
			LocationID: loc.ID,
			RemoteID:   "accounts/demo/locations/demo/reviews/seed-2",
			Author:     "Marcus L.",
			Rating:     3,
			Comment:    "Good bread but the queue on Saturday is rough.",
			CreateTime: now.Add(-24 * time.Hour),
			UpdateTime: now.Add(-24 * time.Hour),
		},
	}
	for _, rev := range samples {
		if _, err := store.UpsertReview(ctx, rev); err != nil {
			log.WithError(err).Fatal("seed review")
		}
	}

	if _, err := store.CreateSocialPost(ctx, social.Post{
		TenantID:    t.ID,
		LocationID:  loc.ID,
		Caption:     "Fresh sourdough every morning from 7am.",
		Channels:    []string{social.ChannelGBP},
		Status:      social.StatusScheduled,
		ScheduledAt: now.Add(24 * time.Hour),
	}); err != nil {
		log.WithError(err).Fatal("seed social post")
	}

	log.WithField("tenant_id", t.ID).
		WithField("location_id", loc.ID).
		Info("demo data seeded")
}
