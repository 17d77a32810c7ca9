package domain

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/squadbid/backend/internal/common"
	"github.com/squadbid/backend/internal/entity"
	"github.com/squadbid/backend/internal/model"
	"github.com/squadbid/backend/internal/repository"
	"github.com/squadbid/backend/pkg/errorx"
	"github.com/squadbid/backend/pkg/pubsub"
	"github.com/squadbid/backend/pkg/xcontext"
	"gorm.io/gorm"

	"github.com/squadbid/backend/internal/domain/auctiontimer"
)

// errIntegrity marks an invariant violation detected at settle time. The
// auction is halted and the error surfaced, never auto-corrected.
var errIntegrity = errors.New("auction integrity violation")

type AuctionDomain interface {
	Start(ctx context.Context, req *model.StartAuctionRequest) (*model.StartAuctionResponse, error)
	Pause(ctx context.Context, req *model.PauseAuctionRequest) (*model.PauseAuctionResponse, error)
	Resume(ctx context.Context, req *model.ResumeAuctionRequest) (*model.ResumeAuctionResponse, error)
	FinalCall(ctx context.Context, req *model.FinalCallRequest) (*model.FinalCallResponse, error)
	Skip(ctx context.Context, req *model.SkipLotRequest) (*model.SkipLotResponse, error)
	UndoLastBid(ctx context.Context, req *model.UndoLastBidRequest) (*model.UndoLastBidResponse, error)
	StartTimer(ctx context.Context, req *model.StartTimerRequest) (*model.StartTimerResponse, error)
	Join(ctx context.Context, req *model.JoinAuctionRequest) (*model.JoinAuctionResponse, error)
	Get(ctx context.Context, req *model.GetAuctionRequest) (*model.GetAuctionResponse, error)

	// SkipBySystem forces the current lot unsold without an admin. It is
	// invoked by the vote tally when the dislike threshold is reached.
	SkipBySystem(ctx context.Context, auctionID, lotID string, reason entity.UnsoldReasonType) error

	// HandleTimerExpired is wired into the timer center. In auto mode it
	// finalizes the expired lot exactly once.
	HandleTimerExpired(ctx context.Context, auctionID, lotID string)
}

type auctionDomain struct {
	auctionRepo     repository.AuctionRepository
	playerRepo      repository.PlayerRepository
	userRepo        repository.UserRepository
	bidRepo         repository.BidRepository
	participantRepo repository.ParticipantRepository
	roleVerifier    *common.GlobalRoleVerifier
	rotator         *rotator
	timerCenter     *auctiontimer.Center
	publisher       pubsub.Publisher
}

func NewAuctionDomain(
	auctionRepo repository.AuctionRepository,
	playerRepo repository.PlayerRepository,
	userRepo repository.UserRepository,
	bidRepo repository.BidRepository,
	participantRepo repository.ParticipantRepository,
	timerCenter *auctiontimer.Center,
	publisher pubsub.Publisher,
) *auctionDomain {
	d := &auctionDomain{
		auctionRepo:     auctionRepo,
		playerRepo:      playerRepo,
		userRepo:        userRepo,
		bidRepo:         bidRepo,
		participantRepo: participantRepo,
		roleVerifier:    common.NewGlobalRoleVerifier(userRepo),
		rotator:         newRotator(playerRepo),
		timerCenter:     timerCenter,
		publisher:       publisher,
	}

	timerCenter.SetExpireHandler(d.HandleTimerExpired)
	return d
}

func (d *auctionDomain) Start(
	ctx context.Context, req *model.StartAuctionRequest,
) (*model.StartAuctionResponse, error) {
	if err := d.roleVerifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
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

	if auction.Status != entity.AuctionUpcoming {
		return nil, errorx.New(errorx.InvalidTransition,
			"Cannot start an auction in %s status", auction.Status)
	}

	if _, err := d.auctionRepo.GetActive(ctx); err == nil {
		return nil, errorx.New(errorx.ConcurrentAuctionExists,
			"Another auction is already live")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot check the active auction: %v", err)
		return nil, errorx.Unknown
	}

	// The snapshot read above cannot see a start committing concurrently.
	// The live slot insert is the real serializer, its primary key lets the
	// database reject the second starter.
	if err := d.auctionRepo.ClaimLive(ctx, auction.ID); err != nil {
		xcontext.Logger(ctx).Debugf("Cannot claim the live slot: %v", err)
		return nil, errorx.New(errorx.ConcurrentAuctionExists,
			"Another auction is already live")
	}

	advance, err := d.rotator.advance(ctx, auction.CategoryFlow, 0)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot select the first lot: %v", err)
		return nil, errorx.Unknown
	}

	if advance.AuctionCompleted {
		return nil, errorx.New(errorx.NoAvailableLots, "Every category is empty")
	}

	err = d.auctionRepo.CheckAndUpdateStatus(
		ctx, auction.ID, entity.AuctionUpcoming, entity.AuctionOngoing)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.InvalidTransition, "The auction has already started")
		}

		xcontext.Logger(ctx).Errorf("Cannot update auction status: %v", err)
		return nil, errorx.Unknown
	}

	err = d.auctionRepo.SetCurrentLot(ctx, auction.ID, advance.CategoryIndex, advance.NextLot.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot set the first lot: %v", err)
		return nil, errorx.Unknown
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	// The countdown is not started here. It starts on the first bid or on
	// an explicit admin StartTimer.
	snapshot, err := d.snapshot(ctx, auction.ID)
	if err != nil {
		return nil, err
	}

	d.publishEvent(ctx, model.AuctionEvent{
		Type: model.EventAuctionStarted, AuctionID: auction.ID, Auction: &snapshot,
	})
	d.publishEvent(ctx, model.AuctionEvent{
		Type: model.EventLotAdvanced, AuctionID: auction.ID, Lot: snapshot.CurrentLot,
	})

	return &model.StartAuctionResponse{Auction: snapshot}, nil
}

func (d *auctionDomain) Pause(
	ctx context.Context, req *model.PauseAuctionRequest,
) (*model.PauseAuctionResponse, error) {
	if err := d.roleVerifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
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
		return nil, errorx.New(errorx.InvalidTransition,
			"Cannot pause an auction in %s status", auction.Status)
	}

	remaining := remainingSeconds(auction, time.Now())

	err = d.auctionRepo.CheckAndUpdateStatus(
		ctx, auction.ID, entity.AuctionOngoing, entity.AuctionPaused)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.InvalidTransition, "The auction is no longer ongoing")
		}

		xcontext.Logger(ctx).Errorf("Cannot update auction status: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.auctionRepo.SetPausedRemaining(ctx, auction.ID, remaining); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot snapshot the countdown: %v", err)
		return nil, errorx.Unknown
	}

	err = d.auctionRepo.UpdateTimer(ctx, auction.ID, sql.NullTime{}, sql.NullTime{})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot clear the countdown: %v", err)
		return nil, errorx.Unknown
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	d.timerCenter.Stop(auction.ID)
	d.publishEvent(ctx, model.AuctionEvent{
		Type: model.EventAuctionPaused, AuctionID: auction.ID,
	})

	return &model.PauseAuctionResponse{RemainingSec: remaining}, nil
}

func (d *auctionDomain) Resume(
	ctx context.Context, req *model.ResumeAuctionRequest,
) (*model.ResumeAuctionResponse, error) {
	if err := d.roleVerifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
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

	if auction.Status != entity.AuctionPaused {
		return nil, errorx.New(errorx.InvalidTransition,
			"Cannot resume an auction in %s status", auction.Status)
	}

	err = d.auctionRepo.CheckAndUpdateStatus(
		ctx, auction.ID, entity.AuctionPaused, entity.AuctionOngoing)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.InvalidTransition, "The auction is no longer paused")
		}

		xcontext.Logger(ctx).Errorf("Cannot update auction status: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.auctionRepo.SetPausedRemaining(ctx, auction.ID, 0); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reset the countdown snapshot: %v", err)
		return nil, errorx.Unknown
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	if auction.PausedRemainingSec > 0 && auction.CurrentLotID.Valid {
		d.startLotTimer(ctx, auction.ID, auction.CurrentLotID.String,
			time.Duration(auction.PausedRemainingSec)*time.Second, model.EventTimerStarted)
	}

	snapshot, err := d.snapshot(ctx, auction.ID)
	if err != nil {
		return nil, err
	}

	d.publishEvent(ctx, model.AuctionEvent{
		Type: model.EventAuctionResumed, AuctionID: auction.ID, Auction: &snapshot,
	})

	return &model.ResumeAuctionResponse{Auction: snapshot}, nil
}

func (d *auctionDomain) FinalCall(
	ctx context.Context, req *model.FinalCallRequest,
) (*model.FinalCallResponse, error) {
	if err := d.roleVerifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	outcome, err := d.finalize(ctx, req.AuctionID, "")
	if err != nil {
		return nil, err
	}

	resp := &model.FinalCallResponse{
		Sold:             outcome.Sold,
		Lot:              model.ConvertPlayer(outcome.Lot),
		CategoryAdvanced: outcome.Advance.CategoryAdvanced,
		AuctionCompleted: outcome.Advance.AuctionCompleted,
	}
	if outcome.Advance.NextLot != nil {
		next := model.ConvertPlayer(outcome.Advance.NextLot)
		resp.NextLot = &next
	}

	return resp, nil
}

func (d *auctionDomain) Skip(
	ctx context.Context, req *model.SkipLotRequest,
) (*model.SkipLotResponse, error) {
	if err := d.roleVerifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	outcome, err := d.resolve(ctx, req.AuctionID, "", true, entity.UnsoldAdminSkip)
	if err != nil {
		return nil, err
	}

	resp := &model.SkipLotResponse{
		Lot:              model.ConvertPlayer(outcome.Lot),
		CategoryAdvanced: outcome.Advance.CategoryAdvanced,
		AuctionCompleted: outcome.Advance.AuctionCompleted,
	}
	if outcome.Advance.NextLot != nil {
		next := model.ConvertPlayer(outcome.Advance.NextLot)
		resp.NextLot = &next
	}

	return resp, nil
}

func (d *auctionDomain) SkipBySystem(
	ctx context.Context, auctionID, lotID string, reason entity.UnsoldReasonType,
) error {
	_, err := d.resolve(ctx, auctionID, lotID, true, reason)
	return err
}

func (d *auctionDomain) UndoLastBid(
	ctx context.Context, req *model.UndoLastBidRequest,
) (*model.UndoLastBidResponse, error) {
	if err := d.roleVerifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
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

	if !auction.CurrentLotID.Valid {
		return nil, errorx.New(errorx.BadRequest, "No lot is active")
	}

	lotID := auction.CurrentLotID.String
	last, err := d.bidRepo.GetHighestByPlayerID(ctx, lotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.BadRequest, "The lot has no bid to undo")
		}

		xcontext.Logger(ctx).Errorf("Cannot get the last bid: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.bidRepo.Delete(ctx, last.ID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete the last bid: %v", err)
		return nil, errorx.Unknown
	}

	// The new high bid is the top of the remaining bids, zero if the undone
	// bid was the only one.
	var amount int64
	var bidderID sql.NullString
	var bidAt sql.NullTime
	prev, err := d.bidRepo.GetHighestByPlayerID(ctx, lotID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get the previous bid: %v", err)
		return nil, errorx.Unknown
	}

	if err == nil {
		amount = prev.Amount
		bidderID = sql.NullString{String: prev.UserID, Valid: true}
		bidAt = sql.NullTime{Time: prev.CreatedAt, Valid: true}
	}

	if err := d.auctionRepo.SetCurrentBid(ctx, auction.ID, amount, bidderID, bidAt); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot restore the high bid: %v", err)
		return nil, errorx.Unknown
	}

	err = d.playerRepo.UpdateCurrentBid(ctx, lotID, amount, bidderID, bidderID.Valid)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot restore the lot bid: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.userRepo.IncreaseBidCount(ctx, last.UserID, -1); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot decrease the bid count: %v", err)
		return nil, errorx.Unknown
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	currentBid := model.Bid{Amount: amount, BidderID: bidderID.String, PlacedAt: bidAt.Time}
	d.publishEvent(ctx, model.AuctionEvent{
		Type: model.EventBidUndone, AuctionID: auction.ID, Bid: &currentBid,
	})

	return &model.UndoLastBidResponse{CurrentBid: currentBid}, nil
}

func (d *auctionDomain) StartTimer(
	ctx context.Context, req *model.StartTimerRequest,
) (*model.StartTimerResponse, error) {
	if err := d.roleVerifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

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

	if !auction.CurrentLotID.Valid {
		return nil, errorx.New(errorx.BadRequest, "No lot is active")
	}

	duration := xcontext.Configs(ctx).Auction.TimerDuration
	endsAt := d.startLotTimer(
		ctx, auction.ID, auction.CurrentLotID.String, duration, model.EventTimerStarted)

	return &model.StartTimerResponse{TimerEndsAt: endsAt}, nil
}

func (d *auctionDomain) Join(
	ctx context.Context, req *model.JoinAuctionRequest,
) (*model.JoinAuctionResponse, error) {
	userID := xcontext.RequestUserID(ctx)

	auction, err := d.auctionRepo.GetByID(ctx, req.AuctionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found auction")
		}

		xcontext.Logger(ctx).Errorf("Cannot get auction: %v", err)
		return nil, errorx.Unknown
	}

	if auction.Status == entity.AuctionCompleted {
		return nil, errorx.New(errorx.BadRequest, "The auction has completed")
	}

	err = d.participantRepo.Upsert(ctx, &entity.AuctionParticipant{
		AuctionID:   auction.ID,
		UserID:      userID,
		IsConnected: true,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot join the auction: %v", err)
		return nil, errorx.Unknown
	}

	return &model.JoinAuctionResponse{}, nil
}

func (d *auctionDomain) Get(
	ctx context.Context, req *model.GetAuctionRequest,
) (*model.GetAuctionResponse, error) {
	snapshot, err := d.snapshot(ctx, req.AuctionID)
	if err != nil {
		return nil, err
	}

	return &model.GetAuctionResponse{Auction: snapshot}, nil
}

func (d *auctionDomain) HandleTimerExpired(ctx context.Context, auctionID, lotID string) {
	d.publishEvent(ctx, model.AuctionEvent{
		Type: model.EventTimerExpired, AuctionID: auctionID,
	})

	auction, err := d.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get auction on timer expiry: %v", err)
		return
	}

	if auction.Mode != entity.AuctionModeAuto {
		// Manual mode countdown is advisory, the admin issues the final
		// call explicitly.
		return
	}

	if _, err := d.finalize(ctx, auctionID, lotID); err != nil {
		// The timer already fired and was removed, so a failing lot is not
		// retried in a loop.
		xcontext.Logger(ctx).Errorf("Cannot finalize the expired lot %s: %v", lotID, err)
	}
}

type resolveOutcome struct {
	Sold    bool
	Lot     *entity.Player
	Advance *advanceResult
}

// finalize settles the current lot: sale if a high bid exists, unsold with
// reason no_bids otherwise. The expectLotID guard makes timer-driven calls
// a no-op when the auction already advanced past the expired lot.
func (d *auctionDomain) finalize(
	ctx context.Context, auctionID, expectLotID string,
) (*resolveOutcome, error) {
	return d.resolve(ctx, auctionID, expectLotID, false, entity.UnsoldNoBids)
}

func (d *auctionDomain) resolve(
	ctx context.Context, auctionID, expectLotID string, forceUnsold bool, reason entity.UnsoldReasonType,
) (*resolveOutcome, error) {
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	auction, err := d.auctionRepo.GetByID(ctx, auctionID)
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

	if !auction.CurrentLotID.Valid {
		return nil, errorx.New(errorx.BadRequest, "No lot is active")
	}

	lotID := auction.CurrentLotID.String
	if expectLotID != "" && lotID != expectLotID {
		return nil, errorx.New(errorx.NotCurrentLot, "The lot has already been resolved")
	}

	// A vote-driven skip is only legal while the lot has no accepted bid.
	// The vote transaction checks this too, but a bid may commit between the
	// two transactions.
	if reason == entity.UnsoldUnanimousDislike && auction.CurrentBidAmount > 0 {
		return nil, errorx.New(errorx.BadRequest, "Bidding has started on the lot")
	}

	outcome, err := d.resolveCurrentLot(ctx, auction, forceUnsold, reason)
	if err != nil {
		if errors.Is(err, errIntegrity) {
			ctx = xcontext.WithRollbackDBTransaction(ctx)
			d.halt(ctx, auction.ID)
			return nil, errorx.New(errorx.Internal, "The auction has been halted")
		}

		var errx errorx.Error
		if errors.As(err, &errx) {
			return nil, errx
		}

		xcontext.Logger(ctx).Errorf("Cannot resolve the current lot: %v", err)
		return nil, errorx.Unknown
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	d.timerCenter.Stop(auction.ID)
	d.publishResolveEvents(ctx, auction, outcome, forceUnsold, reason)

	if !outcome.Advance.AuctionCompleted && auction.Mode == entity.AuctionModeAuto {
		d.startLotTimer(ctx, auction.ID, outcome.Advance.NextLot.ID,
			xcontext.Configs(ctx).Auction.TimerDuration, model.EventTimerStarted)
	}

	return outcome, nil
}

// resolveCurrentLot runs inside the caller's transaction: it settles or
// voids the lot, then advances the rotation cursor. All-or-nothing, the
// caller commits.
func (d *auctionDomain) resolveCurrentLot(
	ctx context.Context, auction *entity.Auction, forceUnsold bool, reason entity.UnsoldReasonType,
) (*resolveOutcome, error) {
	lotID := auction.CurrentLotID.String
	sold := !forceUnsold && auction.CurrentBidAmount > 0

	if sold {
		bidderID := auction.CurrentBidderID.String
		price := auction.CurrentBidAmount

		if err := d.userRepo.CheckAndSettle(ctx, bidderID, price); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				xcontext.Logger(ctx).Errorf(
					"Balance of %s cannot cover the sale of %s", bidderID, lotID)
				return nil, errIntegrity
			}

			return nil, err
		}

		if err := d.playerRepo.CheckAndSell(ctx, lotID, bidderID, price, time.Now()); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				xcontext.Logger(ctx).Errorf("The lot %s is not available anymore", lotID)
				return nil, errIntegrity
			}

			return nil, err
		}
	} else if reason == entity.UnsoldUnanimousDislike {
		if err := d.playerRepo.CheckAndMarkUnsoldBeforeBidding(ctx, lotID, reason); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errorx.New(errorx.BadRequest, "Bidding has started on the lot")
			}

			return nil, err
		}
	} else {
		if err := d.playerRepo.CheckAndMarkUnsold(ctx, lotID, reason); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				xcontext.Logger(ctx).Errorf("The lot %s is not available anymore", lotID)
				return nil, errIntegrity
			}

			return nil, err
		}
	}

	advance, err := d.rotator.advance(
		ctx, auction.CategoryFlow, auction.CurrentCategoryIndex)
	if err != nil {
		return nil, err
	}

	if advance.AuctionCompleted {
		if err := d.auctionRepo.Complete(ctx, auction.ID); err != nil {
			return nil, err
		}

		if err := d.auctionRepo.ReleaseLive(ctx, auction.ID); err != nil {
			return nil, err
		}
	} else {
		err := d.auctionRepo.SetCurrentLot(
			ctx, auction.ID, advance.CategoryIndex, advance.NextLot.ID)
		if err != nil {
			return nil, err
		}
	}

	lot, err := d.playerRepo.GetByID(ctx, lotID)
	if err != nil {
		return nil, err
	}

	return &resolveOutcome{Sold: sold, Lot: lot, Advance: advance}, nil
}

func (d *auctionDomain) publishResolveEvents(
	ctx context.Context,
	auction *entity.Auction,
	outcome *resolveOutcome,
	forceUnsold bool,
	reason entity.UnsoldReasonType,
) {
	lot := model.ConvertPlayer(outcome.Lot)
	if outcome.Sold {
		d.publishEvent(ctx, model.AuctionEvent{
			Type: model.EventLotSold, AuctionID: auction.ID, Lot: &lot,
		})
	} else {
		if !forceUnsold {
			reason = entity.UnsoldNoBids
		}

		d.publishEvent(ctx, model.AuctionEvent{
			Type: model.EventLotUnsold, AuctionID: auction.ID, Lot: &lot,
			Reason: string(reason),
		})
	}

	if outcome.Advance.AuctionCompleted {
		d.publishEvent(ctx, model.AuctionEvent{
			Type: model.EventAuctionCompleted, AuctionID: auction.ID,
		})
		return
	}

	next := model.ConvertPlayer(outcome.Advance.NextLot)
	if outcome.Advance.CategoryAdvanced {
		breakSec := int(xcontext.Configs(ctx).Auction.BreakDuration / time.Second)
		d.publishEvent(ctx, model.AuctionEvent{
			Type: model.EventCategoryAdvanced, AuctionID: auction.ID, Lot: &next,
			BreakSec: breakSec,
		})
	}

	d.publishEvent(ctx, model.AuctionEvent{
		Type: model.EventLotAdvanced, AuctionID: auction.ID, Lot: &next,
	})
}

// halt freezes a broken auction until an operator intervenes.
func (d *auctionDomain) halt(ctx context.Context, auctionID string) {
	d.timerCenter.Stop(auctionID)

	err := d.auctionRepo.CheckAndUpdateStatus(
		ctx, auctionID, entity.AuctionOngoing, entity.AuctionPaused)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot halt auction %s: %v", auctionID, err)
	}
}

func (d *auctionDomain) startLotTimer(
	ctx context.Context, auctionID, lotID string, duration time.Duration, eventType string,
) time.Time {
	now := time.Now()
	endsAt := d.timerCenter.Start(ctx, auctionID, lotID, duration)

	err := d.auctionRepo.UpdateTimer(ctx, auctionID,
		sql.NullTime{Time: now, Valid: true},
		sql.NullTime{Time: endsAt, Valid: true},
	)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot persist the countdown: %v", err)
	}

	d.publishEvent(ctx, model.AuctionEvent{Type: eventType, AuctionID: auctionID})
	return endsAt
}

func (d *auctionDomain) snapshot(ctx context.Context, auctionID string) (model.Auction, error) {
	auction, err := d.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Auction{}, errorx.New(errorx.NotFound, "Not found auction")
		}

		xcontext.Logger(ctx).Errorf("Cannot get auction: %v", err)
		return model.Auction{}, errorx.Unknown
	}

	var lot *entity.Player
	if auction.CurrentLotID.Valid {
		lot, err = d.playerRepo.GetByID(ctx, auction.CurrentLotID.String)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get the current lot: %v", err)
			return model.Auction{}, errorx.Unknown
		}
	}

	return model.ConvertAuction(auction, lot), nil
}

func (d *auctionDomain) publishEvent(ctx context.Context, event model.AuctionEvent) {
	publishEvent(ctx, d.publisher, event)
}

func remainingSeconds(auction *entity.Auction, now time.Time) int {
	if !auction.TimerEndsAt.Valid {
		return 0
	}

	remaining := auction.TimerEndsAt.Time.Sub(now)
	if remaining <= 0 {
		return 0
	}

	return int(remaining / time.Second)
}
