package testutil

import (
	"context"
	"time"

	"github.com/squadbid/backend/config"
	"github.com/squadbid/backend/internal/model"
	"github.com/squadbid/backend/migration"
	"github.com/squadbid/backend/pkg/authenticator"
	"github.com/squadbid/backend/pkg/logger"
	"github.com/squadbid/backend/pkg/xcontext"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func NewMockContext() context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	cfg := config.Configs{
		Auth: config.AuthConfigs{
			AccessToken: config.TokenConfigs{
				Name:       "access_token",
				Secret:     "secret",
				Expiration: time.Minute,
			},
		},
		Auction: config.AuctionConfigs{
			TimerDuration:    60 * time.Second,
			MinTimerDuration: 10 * time.Second,
			BreakDuration:    120 * time.Second,
			MaxBidRetry:      3,
		},
	}

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.ERROR))
	ctx = xcontext.WithTokenEngine(ctx,
		authenticator.NewTokenEngine[model.AccessToken](cfg.Auth.AccessToken))
	ctx = xcontext.WithDB(ctx, db)

	if err := migration.Migrate(ctx); err != nil {
		panic(err)
	}

	return ctx
}

func NewMockContextWithUserID(ctx context.Context, userID string) context.Context {
	return xcontext.WithRequestUserID(ctx, userID)
}
