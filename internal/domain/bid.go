package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/squadbid/backend/internal/entity"
	"github.com/squadbid/backend/internal/model"
	"github.com/squadbid/backend/internal/repository"
	"github.com/squadbid/backend/pkg/errorx"
	"github.com/squadbid/backend/pkg/pubsub"
	"github.com/squadbid/backend/pkg/xcontext"
	"gorm.io/gorm"

	"github.com/squadbid/backend/internal/domain/auctiontimer"
)

// errRetryableBid marks a transient storage failure during bid commit. The
// attempt is replayed from scratch, deterministic rejections never carry it.
var errRetryableBid = errors.New("retryable bid failure")

type BidDomain interface {
	PlaceBid(ctx context.Context, req *model.PlaceBidRequest) (*model.PlaceBidResponse, error)
}

type bidDomain struct {
	auctionRepo repository.AuctionRepository
	playerRepo  repository.PlayerRepository
	userRepo    repository.UserRepository
	bidRepo     repository.BidRepository
	timerCenter *auctiontimer.Center
	publisher   pubsub.Publisher
}

func NewBidDomain(
	auctionRepo repository.AuctionRepository,
	playerRepo repository.PlayerRepository,
	userRepo repository.UserRepository,
	bidRepo repository.BidRepository,
	timerCenter *auctiontimer.Center,
	publisher pubsub.Publisher,
) *bidDomain {
	return &bidDomain{
		auctionRepo: auctionRepo,
		playerRepo:  playerRepo,
		userRepo:    userRepo,
		bidRepo:     bidRepo,
		timerCenter: timerCenter,
		publisher:   publisher,
	}
}

func (d *bidDomain) PlaceBid(
	ctx context.Context, req *model.PlaceBidRequest,
) (*model.PlaceBidResponse, error) {
	userID := xcontext.RequestUserID(ctx)
	maxRetry := xcontext.Configs(ctx).Auction.MaxBidRetry

	var resp *model.PlaceBidResponse
	var err error
	for attempt := 0; attempt <= maxRetry; attempt++ {
		resp, err = d.place(ctx, req, userID)
		if !errors.Is(err, errRetryableBid) {
			return resp, err
		}

		xcontext.Logger(ctx).Warnf(
			"Retrying bid of %s on lot %s (attempt %d): %v", userID, req.LotID, attempt, err)
	}

	return nil, errorx.New(errorx.BidFailed, "Cannot place the bid, please try again")
}

func (d *bidDomain) place(
	ctx context.Context, req *model.PlaceBidRequest, userID string,
) (*model.PlaceBidResponse, error) {
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
		return nil, errorx.New(errorx.AuctionNotActive, "The auction is not accepting bids")
	}

	if !auction.CurrentLotID.Valid || auction.CurrentLotID.String != req.LotID {
		return nil, errorx.New(errorx.NotCurrentLot, "The lot is not on the block")
	}

	lot, err := d.playerRepo.GetByID(ctx, req.LotID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get the lot: %v", err)
		return nil, errorx.Unknown
	}

	if lot.Status != entity.PlayerAvailable {
		return nil, errorx.New(errorx.LotUnavailable, "The lot has already been resolved")
	}

	user, err := d.userRepo.GetByID(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get the bidder: %v", err)
		return nil, errorx.Unknown
	}

	if !user.IsActive {
		return nil, errorx.New(errorx.BidderIneligible, "You are not eligible to bid")
	}

	if req.Amount <= auction.CurrentBidAmount {
		return nil, errorx.New(errorx.BidTooLow,
			"The bid must exceed the current high bid of %d", auction.CurrentBidAmount)
	}

	if req.Amount < lot.BaseValue {
		return nil, errorx.New(errorx.BelowBaseValue,
			"The bid must be at least the base value of %d", lot.BaseValue)
	}

	if auction.CurrentBidderID.Valid && auction.CurrentBidderID.String == userID {
		return nil, errorx.New(errorx.AlreadyHighestBidder, "You already hold the high bid")
	}

	if user.Balance < req.Amount {
		return nil, errorx.New(errorx.InsufficientBalance,
			"Your balance cannot cover this bid")
	}

	// The guard decides concurrent bids. Exactly one competing request
	// passes, every loser falls through to the re-read below and gets a
	// deterministic rejection.
	now := time.Now()
	err = d.auctionRepo.CheckAndUpdateCurrentBid(
		ctx, auction.ID, req.LotID, userID, req.Amount, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, d.rejectLostBid(ctx, req, userID)
		}

		return nil, fmt.Errorf("%w: %v", errRetryableBid, err)
	}

	bid := &entity.Bid{
		Base:      entity.Base{ID: uuid.NewString(), CreatedAt: now},
		AuctionID: auction.ID,
		PlayerID:  req.LotID,
		UserID:    userID,
		Amount:    req.Amount,
	}
	if err := d.bidRepo.Create(ctx, bid); err != nil {
		return nil, fmt.Errorf("%w: %v", errRetryableBid, err)
	}

	err = d.playerRepo.UpdateCurrentBid(ctx, req.LotID, req.Amount,
		toNullString(userID), true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errRetryableBid, err)
	}

	if err := d.userRepo.IncreaseBidCount(ctx, userID, 1); err != nil {
		return nil, fmt.Errorf("%w: %v", errRetryableBid, err)
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	d.adjustTimer(ctx, auction)

	fresh, err := d.auctionRepo.GetByID(ctx, auction.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reload the auction: %v", err)
		return nil, errorx.Unknown
	}

	lot, err = d.playerRepo.GetByID(ctx, req.LotID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reload the lot: %v", err)
		return nil, errorx.Unknown
	}

	bidModel := model.ConvertBid(bid)
	auctionModel := model.ConvertAuction(fresh, lot)
	d.publishBidAccepted(ctx, auction.ID, bidModel, auctionModel)

	return &model.PlaceBidResponse{Bid: bidModel, Auction: auctionModel}, nil
}

// rejectLostBid re-reads the auction after losing the commit guard and maps
// the fresh state to the rejection the bidder would have gotten had their
// request arrived second.
func (d *bidDomain) rejectLostBid(
	ctx context.Context, req *model.PlaceBidRequest, userID string,
) error {
	fresh, err := d.auctionRepo.GetByID(ctx, req.AuctionID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot re-read auction after lost bid: %v", err)
		return errorx.Unknown
	}

	if fresh.Status != entity.AuctionOngoing {
		return errorx.New(errorx.AuctionNotActive, "The auction is not accepting bids")
	}

	if !fresh.CurrentLotID.Valid || fresh.CurrentLotID.String != req.LotID {
		return errorx.New(errorx.NotCurrentLot, "The lot is not on the block")
	}

	if fresh.CurrentBidderID.Valid && fresh.CurrentBidderID.String == userID {
		return errorx.New(errorx.AlreadyHighestBidder, "You already hold the high bid")
	}

	if req.Amount <= fresh.CurrentBidAmount {
		return errorx.New(errorx.BidTooLow,
			"The bid must exceed the current high bid of %d", fresh.CurrentBidAmount)
	}

	// The guard lost but the fresh state accepts the bid, so the conflict
	// was transient.
	return fmt.Errorf("%w: lost the commit guard without a visible conflict", errRetryableBid)
}

// adjustTimer applies the countdown side effect of an accepted bid: the
// lot's first bid restarts the countdown with the configured reduction,
// floored at the minimum. Later bids leave the countdown alone.
func (d *bidDomain) adjustTimer(ctx context.Context, auction *entity.Auction) {
	firstBid := auction.CurrentBidAmount == 0
	if !firstBid || !auction.RestartTimerAfterFirstBid {
		return
	}

	cfg := xcontext.Configs(ctx).Auction
	lotID := auction.CurrentLotID.String
	reduced := cfg.TimerDuration -
		time.Duration(auction.RestartTimerReductionSec)*time.Second
	endsAt := d.timerCenter.Restart(ctx, auction.ID, lotID, reduced)

	err := d.auctionRepo.UpdateTimer(ctx, auction.ID,
		toNullTime(time.Now()), toNullTime(endsAt))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot persist the countdown: %v", err)
	}

	d.publishEvent(ctx, model.AuctionEvent{
		Type: model.EventTimerRestarted, AuctionID: auction.ID,
	})
}

func (d *bidDomain) publishBidAccepted(
	ctx context.Context, auctionID string, bid model.Bid, auction model.Auction,
) {
	d.publishEvent(ctx, model.AuctionEvent{
		Type:      model.EventBidAccepted,
		AuctionID: auctionID,
		Bid:       &bid,
		Auction:   &auction,
	})
}

func (d *bidDomain) publishEvent(ctx context.Context, event model.AuctionEvent) {
	publishEvent(ctx, d.publisher, event)
}
