package domain

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/squadbid/backend/internal/entity"
	"github.com/squadbid/backend/internal/model"
	"github.com/squadbid/backend/internal/repository"
	"github.com/squadbid/backend/pkg/enum"
	"github.com/squadbid/backend/pkg/errorx"
	"github.com/squadbid/backend/pkg/pubsub"
	"github.com/squadbid/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type VoteDomain interface {
	Cast(ctx context.Context, req *model.CastVoteRequest) (*model.CastVoteResponse, error)
}

type voteDomain struct {
	auctionRepo     repository.AuctionRepository
	playerRepo      repository.PlayerRepository
	voteRepo        repository.VoteRepository
	participantRepo repository.ParticipantRepository
	auctionDomain   AuctionDomain
	publisher       pubsub.Publisher
}

func NewVoteDomain(
	auctionRepo repository.AuctionRepository,
	playerRepo repository.PlayerRepository,
	voteRepo repository.VoteRepository,
	participantRepo repository.ParticipantRepository,
	auctionDomain AuctionDomain,
	publisher pubsub.Publisher,
) *voteDomain {
	return &voteDomain{
		auctionRepo:     auctionRepo,
		playerRepo:      playerRepo,
		voteRepo:        voteRepo,
		participantRepo: participantRepo,
		auctionDomain:   auctionDomain,
		publisher:       publisher,
	}
}

func (d *voteDomain) Cast(
	ctx context.Context, req *model.CastVoteRequest,
) (*model.CastVoteResponse, error) {
	userID := xcontext.RequestUserID(ctx)

	voteType, err := enum.ToEnum[entity.VoteType](req.Type)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Invalid vote type %s", req.Type)
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	auction, err := d.auctionRepo.GetByID(ctx, req.AuctionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found auction")
		}

		xcontext.Logger(ctx).Errorf("Cannot get auction: %v", err)
		return nil, errorx.Unknown
	}

	if auction.Status != entity.AuctionOngoing {
		return nil, errorx.New(errorx.AuctionNotActive, "The auction is not ongoing")
	}

	if !auction.CurrentLotID.Valid || auction.CurrentLotID.String != req.LotID {
		return nil, errorx.New(errorx.NotCurrentLot, "The lot is not on the block")
	}

	lot, err := d.playerRepo.GetByID(ctx, req.LotID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get the lot: %v", err)
		return nil, errorx.Unknown
	}

	err = d.voteRepo.Upsert(ctx, &entity.Vote{
		PlayerID:  req.LotID,
		UserID:    userID,
		Type:      voteType,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot record the vote: %v", err)
		return nil, errorx.Unknown
	}

	likes, err := d.voteRepo.CountByType(ctx, req.LotID, entity.VoteLike)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count likes: %v", err)
		return nil, errorx.Unknown
	}

	dislikes, err := d.voteRepo.CountByType(ctx, req.LotID, entity.VoteDislike)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count dislikes: %v", err)
		return nil, errorx.Unknown
	}

	active, err := d.participantRepo.CountConnected(ctx, auction.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count connected participants: %v", err)
		return nil, errorx.Unknown
	}

	// Likes recorded by since-disconnected voters stay in the summary but
	// must not count toward the celebration.
	connectedLikes, err := d.voteRepo.CountConnectedByType(
		ctx, auction.ID, req.LotID, entity.VoteLike)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count connected likes: %v", err)
		return nil, errorx.Unknown
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	summary := model.VoteSummary{
		Likes:    likes,
		Dislikes: dislikes,
		Total:    likes + dislikes,
		Net:      likes - dislikes,
	}

	publishEvent(ctx, d.publisher, model.AuctionEvent{
		Type: model.EventVoteUpdated, AuctionID: auction.ID, Summary: &summary,
	})

	if active > 0 && connectedLikes == active {
		publishEvent(ctx, d.publisher, model.AuctionEvent{
			Type: model.EventAllLikes, AuctionID: auction.ID, Summary: &summary,
		})
	}

	// The dislike rule only fires before bidding opens on the lot. Once a
	// bid exists the tally is advisory.
	if !lot.BiddingStarted && d.reachedSkipThreshold(dislikes, active, auction.SkipThreshold) {
		err := d.auctionDomain.SkipBySystem(
			ctx, auction.ID, req.LotID, entity.UnsoldUnanimousDislike)
		if err != nil {
			// Another request may have resolved the lot first, which is not
			// a voter-visible failure.
			xcontext.Logger(ctx).Warnf("Cannot skip the disliked lot: %v", err)
		}
	}

	return &model.CastVoteResponse{Summary: summary}, nil
}

func (d *voteDomain) reachedSkipThreshold(dislikes, active int64, threshold float64) bool {
	if active <= 0 || threshold <= 0 {
		return false
	}

	needed := int64(math.Ceil(float64(active) * threshold))
	return dislikes >= needed
}
