package repository

import (
	"context"

	"github.com/squadbid/backend/internal/entity"
	"github.com/squadbid/backend/pkg/xcontext"
	"gorm.io/gorm/clause"
)

type VoteRepository interface {
	// Upsert records a vote, replacing any prior vote by the same
	// participant on the same lot.
	Upsert(ctx context.Context, vote *entity.Vote) error

	Get(ctx context.Context, playerID, userID string) (*entity.Vote, error)
	CountByType(ctx context.Context, playerID string, voteType entity.VoteType) (int64, error)

	// CountConnectedByType counts the votes of a type cast by currently
	// connected participants of the auction.
	CountConnectedByType(ctx context.Context, auctionID, playerID string, voteType entity.VoteType) (int64, error)
}

type voteRepository struct{}

func NewVoteRepository() *voteRepository {
	return &voteRepository{}
}

func (r *voteRepository) Upsert(ctx context.Context, vote *entity.Vote) error {
	return xcontext.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"type", "updated_at"}),
	}).Create(vote).Error
}

func (r *voteRepository) Get(ctx context.Context, playerID, userID string) (*entity.Vote, error) {
	var result entity.Vote
	err := xcontext.DB(ctx).
		Take(&result, "player_id=? AND user_id=?", playerID, userID).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *voteRepository) CountByType(
	ctx context.Context, playerID string, voteType entity.VoteType,
) (int64, error) {
	var count int64
	err := xcontext.DB(ctx).Model(&entity.Vote{}).
		Where("player_id=? AND type=?", playerID, voteType).Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *voteRepository) CountConnectedByType(
	ctx context.Context, auctionID, playerID string, voteType entity.VoteType,
) (int64, error) {
	var count int64
	err := xcontext.DB(ctx).Model(&entity.Vote{}).
		Joins("JOIN auction_participants ON auction_participants.user_id = votes.user_id").
		Where("auction_participants.auction_id=? AND auction_participants.is_connected=?", auctionID, true).
		Where("auction_participants.deleted_at IS NULL").
		Where("votes.player_id=? AND votes.type=?", playerID, voteType).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}
