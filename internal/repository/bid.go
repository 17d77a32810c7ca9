package repository

import (
	"context"

	"github.com/squadbid/backend/internal/entity"
	"github.com/squadbid/backend/pkg/xcontext"
)

type BidRepository interface {
	Create(ctx context.Context, bid *entity.Bid) error

	// GetHighestByPlayerID returns the current top bid of a lot. Accepted
	// bid amounts are strictly increasing per lot, so the top bid is also
	// the most recent one.
	GetHighestByPlayerID(ctx context.Context, playerID string) (*entity.Bid, error)

	CountByPlayerID(ctx context.Context, playerID string) (int64, error)
	Delete(ctx context.Context, bidID string) error
}

type bidRepository struct{}

func NewBidRepository() *bidRepository {
	return &bidRepository{}
}

func (r *bidRepository) Create(ctx context.Context, bid *entity.Bid) error {
	return xcontext.DB(ctx).Create(bid).Error
}

func (r *bidRepository) GetHighestByPlayerID(ctx context.Context, playerID string) (*entity.Bid, error) {
	var result entity.Bid
	err := xcontext.DB(ctx).Where("player_id=?", playerID).
		Order("amount DESC").Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *bidRepository) CountByPlayerID(ctx context.Context, playerID string) (int64, error) {
	var count int64
	err := xcontext.DB(ctx).Model(&entity.Bid{}).
		Where("player_id=?", playerID).Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *bidRepository) Delete(ctx context.Context, bidID string) error {
	return xcontext.DB(ctx).Delete(&entity.Bid{}, "id=?", bidID).Error
}
