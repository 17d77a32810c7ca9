package repository

import (
	"context"

	"github.com/squadbid/backend/internal/entity"
	"github.com/squadbid/backend/pkg/xcontext"
	"gorm.io/gorm/clause"
)

type ParticipantRepository interface {
	Upsert(ctx context.Context, participant *entity.AuctionParticipant) error
	SetConnected(ctx context.Context, auctionID, userID string, connected bool) error
	CountConnected(ctx context.Context, auctionID string) (int64, error)
	ListByAuctionID(ctx context.Context, auctionID string) ([]entity.AuctionParticipant, error)
}

type participantRepository struct{}

func NewParticipantRepository() *participantRepository {
	return &participantRepository{}
}

func (r *participantRepository) Upsert(ctx context.Context, participant *entity.AuctionParticipant) error {
	return xcontext.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "auction_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_connected", "updated_at"}),
	}).Create(participant).Error
}

func (r *participantRepository) SetConnected(
	ctx context.Context, auctionID, userID string, connected bool,
) error {
	return xcontext.DB(ctx).Model(&entity.AuctionParticipant{}).
		Where("auction_id=? AND user_id=?", auctionID, userID).
		Update("is_connected", connected).Error
}

func (r *participantRepository) CountConnected(ctx context.Context, auctionID string) (int64, error) {
	var count int64
	err := xcontext.DB(ctx).Model(&entity.AuctionParticipant{}).
		Where("auction_id=? AND is_connected=?", auctionID, true).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *participantRepository) ListByAuctionID(
	ctx context.Context, auctionID string,
) ([]entity.AuctionParticipant, error) {
	var result []entity.AuctionParticipant
	err := xcontext.DB(ctx).Find(&result, "auction_id=?", auctionID).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
