package testutil

import (
	"context"

	"github.com/squadbid/backend/internal/entity"
	"github.com/squadbid/backend/internal/repository"
)

var (
	Admin = &entity.User{
		Base:     entity.Base{ID: "admin"},
		Name:     "admin",
		Role:     entity.RoleSuperAdmin,
		IsActive: true,
	}

	User1 = &entity.User{
		Base:     entity.Base{ID: "user1"},
		Name:     "user1",
		Role:     entity.RoleUser,
		Balance:  1000,
		IsActive: true,
	}

	User2 = &entity.User{
		Base:     entity.Base{ID: "user2"},
		Name:     "user2",
		Role:     entity.RoleUser,
		Balance:  1000,
		IsActive: true,
	}

	// User3 has a small balance to exercise affordability rejections.
	User3 = &entity.User{
		Base:     entity.Base{ID: "user3"},
		Name:     "user3",
		Role:     entity.RoleUser,
		Balance:  50,
		IsActive: true,
	}

	Auction1 = &entity.Auction{
		Base:                      entity.Base{ID: "auction1"},
		Name:                      "Season Auction",
		Status:                    entity.AuctionUpcoming,
		Mode:                      entity.AuctionModeManual,
		CategoryFlow:              entity.Array[string]{"batsman", "bowler"},
		RestartTimerAfterFirstBid: true,
		RestartTimerReductionSec:  10,
		SkipThreshold:             0.8,
		CreatedBy:                 "admin",
	}

	// Names are chosen so that alphabetical order is the expected rotation
	// order inside each category.
	Batsman1 = &entity.Player{
		Base:      entity.Base{ID: "batsman1"},
		Name:      "Arjun",
		Category:  "batsman",
		BaseValue: 100,
		Status:    entity.PlayerAvailable,
	}

	Batsman2 = &entity.Player{
		Base:      entity.Base{ID: "batsman2"},
		Name:      "Bharat",
		Category:  "batsman",
		BaseValue: 100,
		Status:    entity.PlayerAvailable,
	}

	Bowler1 = &entity.Player{
		Base:      entity.Base{ID: "bowler1"},
		Name:      "Chirag",
		Category:  "bowler",
		BaseValue: 80,
		Status:    entity.PlayerAvailable,
	}
)

// CreateFixtureDb seeds the mock database with copies of the fixture
// records, so mutations inside one test never leak into another.
func CreateFixtureDb(ctx context.Context) {
	InsertUsers(ctx)
	InsertAuctions(ctx)
	InsertPlayers(ctx)
}

func InsertUsers(ctx context.Context) {
	userRepo := repository.NewUserRepository()
	for _, u := range []*entity.User{Admin, User1, User2, User3} {
		record := *u
		if err := userRepo.Create(ctx, &record); err != nil {
			panic(err)
		}
	}
}

func InsertAuctions(ctx context.Context) {
	auctionRepo := repository.NewAuctionRepository()
	record := *Auction1
	if err := auctionRepo.Create(ctx, &record); err != nil {
		panic(err)
	}
}

func InsertPlayers(ctx context.Context) {
	playerRepo := repository.NewPlayerRepository()
	for _, p := range []*entity.Player{Batsman1, Batsman2, Bowler1} {
		record := *p
		if err := playerRepo.Create(ctx, &record); err != nil {
			panic(err)
		}
	}
}

// JoinParticipants registers users as connected participants of an auction.
func JoinParticipants(ctx context.Context, auctionID string, userIDs ...string) {
	participantRepo := repository.NewParticipantRepository()
	for _, userID := range userIDs {
		err := participantRepo.Upsert(ctx, &entity.AuctionParticipant{
			AuctionID:   auctionID,
			UserID:      userID,
			IsConnected: true,
		})
		if err != nil {
			panic(err)
		}
	}
}
