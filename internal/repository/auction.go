package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/squadbid/backend/internal/entity"
	"github.com/squadbid/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type AuctionRepository interface {
	Create(ctx context.Context, auction *entity.Auction) error
	GetByID(ctx context.Context, auctionID string) (*entity.Auction, error)
	GetActive(ctx context.Context) (*entity.Auction, error)

	// CheckAndUpdateStatus performs a guarded status transition. It returns
	// gorm.ErrRecordNotFound if the auction is not in the expected source
	// status anymore.
	CheckAndUpdateStatus(ctx context.Context, auctionID string, from, to entity.AuctionStatusType) error

	// CheckAndUpdateCurrentBid commits a bid as the new high bid. The guard
	// loses (gorm.ErrRecordNotFound) if the auction left ongoing status, the
	// lot is no longer current, the amount is not strictly higher than the
	// running high bid, or the bidder already holds the high bid.
	CheckAndUpdateCurrentBid(ctx context.Context, auctionID, lotID, bidderID string, amount int64, at time.Time) error

	// ClaimLive inserts the singleton live marker inside the start
	// transaction. The fixed primary key makes the database reject a second
	// live auction regardless of how concurrent starts interleave.
	ClaimLive(ctx context.Context, auctionID string) error
	ReleaseLive(ctx context.Context, auctionID string) error

	SetCurrentLot(ctx context.Context, auctionID string, categoryIndex int, lotID string) error
	SetCurrentBid(ctx context.Context, auctionID string, amount int64, bidderID sql.NullString, at sql.NullTime) error
	UpdateTimer(ctx context.Context, auctionID string, startedAt, endsAt sql.NullTime) error
	SetPausedRemaining(ctx context.Context, auctionID string, seconds int) error
	Complete(ctx context.Context, auctionID string) error
}

type auctionRepository struct{}

func NewAuctionRepository() *auctionRepository {
	return &auctionRepository{}
}

func (r *auctionRepository) Create(ctx context.Context, auction *entity.Auction) error {
	return xcontext.DB(ctx).Create(auction).Error
}

func (r *auctionRepository) GetByID(ctx context.Context, auctionID string) (*entity.Auction, error) {
	var result entity.Auction
	if err := xcontext.DB(ctx).Take(&result, "id=?", auctionID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *auctionRepository) GetActive(ctx context.Context) (*entity.Auction, error) {
	var result entity.Auction
	err := xcontext.DB(ctx).
		Take(&result, "status IN (?)", []entity.AuctionStatusType{entity.AuctionOngoing, entity.AuctionPaused}).
		Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *auctionRepository) CheckAndUpdateStatus(
	ctx context.Context, auctionID string, from, to entity.AuctionStatusType,
) error {
	tx := xcontext.DB(ctx).Model(&entity.Auction{}).
		Where("id=? AND status=?", auctionID, from).
		Update("status", to)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *auctionRepository) CheckAndUpdateCurrentBid(
	ctx context.Context, auctionID, lotID, bidderID string, amount int64, at time.Time,
) error {
	tx := xcontext.DB(ctx).Model(&entity.Auction{}).
		Where(
			"id=? AND status=? AND current_lot_id=? AND current_bid_amount<? "+
				"AND (current_bidder_id IS NULL OR current_bidder_id<>?)",
			auctionID, entity.AuctionOngoing, lotID, amount, bidderID,
		).
		Updates(map[string]any{
			"current_bid_amount": amount,
			"current_bidder_id":  bidderID,
			"current_bid_at":     at,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *auctionRepository) ClaimLive(ctx context.Context, auctionID string) error {
	return xcontext.DB(ctx).Create(&entity.LiveAuction{
		Slot:      entity.LiveAuctionSlot,
		AuctionID: auctionID,
	}).Error
}

func (r *auctionRepository) ReleaseLive(ctx context.Context, auctionID string) error {
	return xcontext.DB(ctx).
		Delete(&entity.LiveAuction{}, "slot=? AND auction_id=?", entity.LiveAuctionSlot, auctionID).
		Error
}

func (r *auctionRepository) SetCurrentLot(
	ctx context.Context, auctionID string, categoryIndex int, lotID string,
) error {
	return xcontext.DB(ctx).Model(&entity.Auction{}).
		Where("id=?", auctionID).
		Updates(map[string]any{
			"current_category_index": categoryIndex,
			"current_lot_id":         lotID,
			"current_bid_amount":     0,
			"current_bidder_id":      nil,
			"current_bid_at":         nil,
			"timer_started_at":       nil,
			"timer_ends_at":          nil,
		}).Error
}

func (r *auctionRepository) SetCurrentBid(
	ctx context.Context, auctionID string, amount int64, bidderID sql.NullString, at sql.NullTime,
) error {
	return xcontext.DB(ctx).Model(&entity.Auction{}).
		Where("id=?", auctionID).
		Updates(map[string]any{
			"current_bid_amount": amount,
			"current_bidder_id":  bidderID,
			"current_bid_at":     at,
		}).Error
}

func (r *auctionRepository) UpdateTimer(
	ctx context.Context, auctionID string, startedAt, endsAt sql.NullTime,
) error {
	return xcontext.DB(ctx).Model(&entity.Auction{}).
		Where("id=?", auctionID).
		Updates(map[string]any{
			"timer_started_at": startedAt,
			"timer_ends_at":    endsAt,
		}).Error
}

func (r *auctionRepository) SetPausedRemaining(ctx context.Context, auctionID string, seconds int) error {
	return xcontext.DB(ctx).Model(&entity.Auction{}).
		Where("id=?", auctionID).
		Update("paused_remaining_sec", seconds).Error
}

func (r *auctionRepository) Complete(ctx context.Context, auctionID string) error {
	return xcontext.DB(ctx).Model(&entity.Auction{}).
		Where("id=?", auctionID).
		Updates(map[string]any{
			"status":             entity.AuctionCompleted,
			"current_lot_id":     nil,
			"current_bid_amount": 0,
			"current_bidder_id":  nil,
			"current_bid_at":     nil,
			"timer_started_at":   nil,
			"timer_ends_at":      nil,
		}).Error
}
