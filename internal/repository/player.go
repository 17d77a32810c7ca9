package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/squadbid/backend/internal/entity"
	"github.com/squadbid/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type PlayerRepository interface {
	Create(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, playerID string) (*entity.Player, error)

	// ListAvailableByCategory returns the still-available lots of a category
	// in deterministic order (name ASC).
	ListAvailableByCategory(ctx context.Context, category string) ([]entity.Player, error)

	// CheckAndSell marks the lot sold exactly once. It returns
	// gorm.ErrRecordNotFound if the lot is no longer available.
	CheckAndSell(ctx context.Context, playerID, userID string, price int64, at time.Time) error

	// CheckAndMarkUnsold marks the lot unsold with a reason, guarded the
	// same way as CheckAndSell.
	CheckAndMarkUnsold(ctx context.Context, playerID string, reason entity.UnsoldReasonType) error

	// CheckAndMarkUnsoldBeforeBidding voids the lot only while no bid has
	// been accepted on it. The guard loses once bidding_started is set, so a
	// bid committing concurrently wins over a vote-driven skip.
	CheckAndMarkUnsoldBeforeBidding(ctx context.Context, playerID string, reason entity.UnsoldReasonType) error

	UpdateCurrentBid(ctx context.Context, playerID string, amount int64, bidderID sql.NullString, biddingStarted bool) error
}

type playerRepository struct{}

func NewPlayerRepository() *playerRepository {
	return &playerRepository{}
}

func (r *playerRepository) Create(ctx context.Context, player *entity.Player) error {
	return xcontext.DB(ctx).Create(player).Error
}

func (r *playerRepository) GetByID(ctx context.Context, playerID string) (*entity.Player, error) {
	var result entity.Player
	if err := xcontext.DB(ctx).Take(&result, "id=?", playerID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *playerRepository) ListAvailableByCategory(ctx context.Context, category string) ([]entity.Player, error) {
	var result []entity.Player
	err := xcontext.DB(ctx).
		Where("category=? AND status=?", category, entity.PlayerAvailable).
		Order("name ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *playerRepository) CheckAndSell(
	ctx context.Context, playerID, userID string, price int64, at time.Time,
) error {
	tx := xcontext.DB(ctx).Model(&entity.Player{}).
		Where("id=? AND status=?", playerID, entity.PlayerAvailable).
		Updates(map[string]any{
			"status":     entity.PlayerSold,
			"sold_to":    userID,
			"sold_price": price,
			"sold_at":    at,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *playerRepository) CheckAndMarkUnsold(
	ctx context.Context, playerID string, reason entity.UnsoldReasonType,
) error {
	tx := xcontext.DB(ctx).Model(&entity.Player{}).
		Where("id=? AND status=?", playerID, entity.PlayerAvailable).
		Updates(map[string]any{
			"status":        entity.PlayerUnsold,
			"unsold_reason": reason,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *playerRepository) CheckAndMarkUnsoldBeforeBidding(
	ctx context.Context, playerID string, reason entity.UnsoldReasonType,
) error {
	tx := xcontext.DB(ctx).Model(&entity.Player{}).
		Where("id=? AND status=? AND bidding_started=?", playerID, entity.PlayerAvailable, false).
		Updates(map[string]any{
			"status":        entity.PlayerUnsold,
			"unsold_reason": reason,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *playerRepository) UpdateCurrentBid(
	ctx context.Context, playerID string, amount int64, bidderID sql.NullString, biddingStarted bool,
) error {
	return xcontext.DB(ctx).Model(&entity.Player{}).
		Where("id=?", playerID).
		Updates(map[string]any{
			"current_bid":       amount,
			"current_bidder_id": bidderID,
			"bidding_started":   biddingStarted,
		}).Error
}
