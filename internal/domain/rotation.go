package domain

import (
	"context"

	"github.com/squadbid/backend/internal/entity"
	"github.com/squadbid/backend/internal/repository"
)

// advanceResult describes where the rotation landed. When AuctionCompleted
// is set no lot is left anywhere in the flow.
type advanceResult struct {
	NextLot          *entity.Player
	CategoryIndex    int
	CategoryAdvanced bool
	AuctionCompleted bool
}

type rotator struct {
	playerRepo repository.PlayerRepository
}

func newRotator(playerRepo repository.PlayerRepository) *rotator {
	return &rotator{playerRepo: playerRepo}
}

// advance walks the category flow from the given index and returns the
// first available lot. Categories without available lots are skipped. The
// walk is a bounded loop over the finite flow, so it always terminates
// within len(flow) steps.
func (r *rotator) advance(ctx context.Context, flow []string, index int) (*advanceResult, error) {
	for i := index; i < len(flow); i++ {
		lots, err := r.playerRepo.ListAvailableByCategory(ctx, flow[i])
		if err != nil {
			return nil, err
		}

		if len(lots) > 0 {
			return &advanceResult{
				NextLot:          &lots[0],
				CategoryIndex:    i,
				CategoryAdvanced: i != index,
			}, nil
		}
	}

	return &advanceResult{
		CategoryIndex:    len(flow),
		CategoryAdvanced: true,
		AuctionCompleted: true,
	}, nil
}
