package migration

import (
	"context"

	"github.com/squadbid/backend/internal/entity"
	"github.com/squadbid/backend/pkg/xcontext"
)

func Migrate(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&entity.User{},
		&entity.Auction{},
		&entity.LiveAuction{},
		&entity.Player{},
		&entity.Bid{},
		&entity.Vote{},
		&entity.AuctionParticipant{},
	)
}
