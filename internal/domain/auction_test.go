package domain

import (
	"context"
	"testing"

	"github.com/squadbid/backend/internal/domain/auctiontimer"
	"github.com/squadbid/backend/internal/entity"
	"github.com/squadbid/backend/internal/model"
	"github.com/squadbid/backend/internal/repository"
	"github.com/squadbid/backend/pkg/errorx"
	"github.com/squadbid/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func setupAuctionDomain(ctx context.Context) (*auctionDomain, *bidDomain, *testutil.MockPublisher) {
	auctionRepo := repository.NewAuctionRepository()
	playerRepo := repository.NewPlayerRepository()
	userRepo := repository.NewUserRepository()
	bidRepo := repository.NewBidRepository()
	participantRepo := repository.NewParticipantRepository()
	publisher := &testutil.MockPublisher{}
	center := auctiontimer.NewCenter(ctx)

	auctionDomain := NewAuctionDomain(
		auctionRepo, playerRepo, userRepo, bidRepo, participantRepo,
		center, publisher)
	bidDomain := NewBidDomain(
		auctionRepo, playerRepo, userRepo, bidRepo, center, publisher)
	return auctionDomain, bidDomain, publisher
}

func Test_auctionDomain_Start(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d, _, _ := setupAuctionDomain(ctx)

	adminCtx := testutil.NewMockContextWithUserID(ctx, testutil.Admin.ID)
	resp, err := d.Start(adminCtx, &model.StartAuctionRequest{AuctionID: testutil.Auction1.ID})
	require.NoError(t, err)
	require.Equal(t, "ongoing", resp.Auction.Status)
	require.NotNil(t, resp.Auction.CurrentLot)

	// The first available lot of the first category, by name.
	require.Equal(t, testutil.Batsman1.ID, resp.Auction.CurrentLot.ID)
	require.Equal(t, 0, resp.Auction.CurrentCategoryIndex)

	// No countdown before the first bid or an explicit timer start.
	require.Zero(t, resp.Auction.RemainingSec)
}

func Test_auctionDomain_Start_notUpcoming(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d, _, _ := setupAuctionDomain(ctx)

	adminCtx := testutil.NewMockContextWithUserID(ctx, testutil.Admin.ID)
	_, err := d.Start(adminCtx, &model.StartAuctionRequest{AuctionID: testutil.Auction1.ID})
	require.NoError(t, err)

	_, err = d.Start(adminCtx, &model.StartAuctionRequest{AuctionID: testutil.Auction1.ID})
	require.Error(t, err)
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.InvalidTransition, errx.Code)
}

func Test_auctionDomain_Start_concurrentAuction(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d, _, _ := setupAuctionDomain(ctx)

	second := *testutil.Auction1
	second.ID = "auction2"
	second.Name = "Second Auction"
	require.NoError(t, repository.NewAuctionRepository().Create(ctx, &second))

	adminCtx := testutil.NewMockContextWithUserID(ctx, testutil.Admin.ID)
	_, err := d.Start(adminCtx, &model.StartAuctionRequest{AuctionID: testutil.Auction1.ID})
	require.NoError(t, err)

	_, err = d.Start(adminCtx, &model.StartAuctionRequest{AuctionID: second.ID})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.ConcurrentAuctionExists, errx.Code)
}

func Test_auctionDomain_Start_permissionDenied(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d, _, _ := setupAuctionDomain(ctx)

	userCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	_, err := d.Start(userCtx, &model.StartAuctionRequest{AuctionID: testutil.Auction1.ID})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.PermissionDenied, errx.Code)
}

func Test_auctionDomain_PauseResume(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d, _, _ := setupAuctionDomain(ctx)

	adminCtx := testutil.NewMockContextWithUserID(ctx, testutil.Admin.ID)
	_, err := d.Start(adminCtx, &model.StartAuctionRequest{AuctionID: testutil.Auction1.ID})
	require.NoError(t, err)

	pauseResp, err := d.Pause(adminCtx, &model.PauseAuctionRequest{AuctionID: testutil.Auction1.ID})
	require.NoError(t, err)
	require.Zero(t, pauseResp.RemainingSec)

	// Bids are rejected while paused.
	userCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	_, bidDomain, _ := setupAuctionDomain(ctx)
	_, err = bidDomain.PlaceBid(userCtx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID,
		LotID:     testutil.Batsman1.ID,
		Amount:    200,
	})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.AuctionNotActive, errx.Code)

	resumeResp, err := d.Resume(adminCtx, &model.ResumeAuctionRequest{AuctionID: testutil.Auction1.ID})
	require.NoError(t, err)
	require.Equal(t, "ongoing", resumeResp.Auction.Status)
	require.Equal(t, testutil.Batsman1.ID, resumeResp.Auction.CurrentLot.ID)
}

func Test_auctionDomain_Pause_invalidTransition(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d, _, _ := setupAuctionDomain(ctx)

	adminCtx := testutil.NewMockContextWithUserID(ctx, testutil.Admin.ID)
	_, err := d.Pause(adminCtx, &model.PauseAuctionRequest{AuctionID: testutil.Auction1.ID})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.InvalidTransition, errx.Code)
}

func Test_auctionDomain_FinalCall_sold(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d, bidDomain, _ := setupAuctionDomain(ctx)

	adminCtx := testutil.NewMockContextWithUserID(ctx, testutil.Admin.ID)
	_, err := d.Start(adminCtx, &model.StartAuctionRequest{AuctionID: testutil.Auction1.ID})
	require.NoError(t, err)

	userCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	_, err = bidDomain.PlaceBid(userCtx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID,
		LotID:     testutil.Batsman1.ID,
		Amount:    200,
	})
	require.NoError(t, err)

	// Balance is untouched until the sale.
	bidder, err := repository.NewUserRepository().GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, testutil.User1.Balance, bidder.Balance)

	resp, err := d.FinalCall(adminCtx, &model.FinalCallRequest{AuctionID: testutil.Auction1.ID})
	require.NoError(t, err)
	require.True(t, resp.Sold)
	require.Equal(t, "sold", resp.Lot.Status)
	require.Equal(t, testutil.User1.ID, resp.Lot.SoldTo)
	require.Equal(t, int64(200), resp.Lot.SoldPrice)
	require.NotNil(t, resp.NextLot)
	require.Equal(t, testutil.Batsman2.ID, resp.NextLot.ID)
	require.False(t, resp.CategoryAdvanced)
	require.False(t, resp.AuctionCompleted)

	// The debit happens exactly once, at the sale.
	bidder, err = repository.NewUserRepository().GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, testutil.User1.Balance-200, bidder.Balance)
	require.Equal(t, 1, bidder.LotsWon)
}

func Test_auctionDomain_FinalCall_noBids(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d, _, _ := setupAuctionDomain(ctx)

	adminCtx := testutil.NewMockContextWithUserID(ctx, testutil.Admin.ID)
	_, err := d.Start(adminCtx, &model.StartAuctionRequest{AuctionID: testutil.Auction1.ID})
	require.NoError(t, err)

	resp, err := d.FinalCall(adminCtx, &model.FinalCallRequest{AuctionID: testutil.Auction1.ID})
	require.NoError(t, err)
	require.False(t, resp.Sold)
	require.Equal(t, "unsold", resp.Lot.Status)
	require.Equal(t, "no_bids", resp.Lot.UnsoldReason)
}

func Test_auctionDomain_rotationAcrossCategoriesAndCompletion(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d, _, _ := setupAuctionDomain(ctx)

	adminCtx := testutil.NewMockContextWithUserID(ctx, testutil.Admin.ID)
	_, err := d.Start(adminCtx, &model.StartAuctionRequest{AuctionID: testutil.Auction1.ID})
	require.NoError(t, err)

	// Two batsmen skip through, the bowler category comes next.
	resp, err := d.Skip(adminCtx, &model.SkipLotRequest{AuctionID: testutil.Auction1.ID})
	require.NoError(t, err)
	require.Equal(t, testutil.Batsman2.ID, resp.NextLot.ID)
	require.False(t, resp.CategoryAdvanced)

	resp, err = d.Skip(adminCtx, &model.SkipLotRequest{AuctionID: testutil.Auction1.ID})
	require.NoError(t, err)
	require.Equal(t, testutil.Bowler1.ID, resp.NextLot.ID)
	require.True(t, resp.CategoryAdvanced)
	require.Equal(t, "admin_skip", resp.Lot.UnsoldReason)

	// The last lot completes the auction.
	resp, err = d.Skip(adminCtx, &model.SkipLotRequest{AuctionID: testutil.Auction1.ID})
	require.NoError(t, err)
	require.True(t, resp.AuctionCompleted)
	require.Nil(t, resp.NextLot)

	auction, err := repository.NewAuctionRepository().GetByID(ctx, testutil.Auction1.ID)
	require.NoError(t, err)
	require.Equal(t, entity.AuctionCompleted, auction.Status)
	require.False(t, auction.CurrentLotID.Valid)
	require.Zero(t, auction.CurrentBidAmount)
	require.False(t, auction.TimerEndsAt.Valid)

	// No further operation is accepted.
	_, err = d.FinalCall(adminCtx, &model.FinalCallRequest{AuctionID: testutil.Auction1.ID})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.AuctionNotActive, errx.Code)
}

func Test_auctionDomain_SkipBySystem_biddingStarted(t *testing.T) {
	ctx, d, bidDomain := startFixtureAuction(t)

	userCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	_, err := bidDomain.PlaceBid(userCtx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID, LotID: testutil.Batsman1.ID, Amount: 150,
	})
	require.NoError(t, err)

	// A bid committed after the vote tally voted for the skip must win over
	// the skip, never the other way around.
	err = d.SkipBySystem(ctx, testutil.Auction1.ID, testutil.Batsman1.ID,
		entity.UnsoldUnanimousDislike)
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.BadRequest, errx.Code)

	// The lot and its bid are untouched.
	lot, err := repository.NewPlayerRepository().GetByID(ctx, testutil.Batsman1.ID)
	require.NoError(t, err)
	require.Equal(t, entity.PlayerAvailable, lot.Status)
	require.True(t, lot.BiddingStarted)

	auction, err := repository.NewAuctionRepository().GetByID(ctx, testutil.Auction1.ID)
	require.NoError(t, err)
	require.Equal(t, testutil.Batsman1.ID, auction.CurrentLotID.String)
	require.Equal(t, int64(150), auction.CurrentBidAmount)

	// An explicit admin skip is still allowed to void a lot with bids.
	adminCtx := testutil.NewMockContextWithUserID(ctx, testutil.Admin.ID)
	resp, err := d.Skip(adminCtx, &model.SkipLotRequest{AuctionID: testutil.Auction1.ID})
	require.NoError(t, err)
	require.Equal(t, "admin_skip", resp.Lot.UnsoldReason)
}

func Test_auctionDomain_Start_afterCompletion(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d, _, _ := setupAuctionDomain(ctx)

	adminCtx := testutil.NewMockContextWithUserID(ctx, testutil.Admin.ID)
	_, err := d.Start(adminCtx, &model.StartAuctionRequest{AuctionID: testutil.Auction1.ID})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = d.Skip(adminCtx, &model.SkipLotRequest{AuctionID: testutil.Auction1.ID})
		require.NoError(t, err)
	}

	// Completion frees the live slot, a later auction can start.
	second := *testutil.Auction1
	second.ID = "auction2"
	second.Name = "Second Auction"
	require.NoError(t, repository.NewAuctionRepository().Create(ctx, &second))

	fresh := entity.Player{
		Base:      entity.Base{ID: "batsman9"},
		Name:      "Zubin",
		Category:  "batsman",
		BaseValue: 100,
		Status:    entity.PlayerAvailable,
	}
	require.NoError(t, repository.NewPlayerRepository().Create(ctx, &fresh))

	resp, err := d.Start(adminCtx, &model.StartAuctionRequest{AuctionID: second.ID})
	require.NoError(t, err)
	require.Equal(t, fresh.ID, resp.Auction.CurrentLot.ID)
}

func Test_auctionDomain_UndoLastBid(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d, bidDomain, _ := setupAuctionDomain(ctx)

	adminCtx := testutil.NewMockContextWithUserID(ctx, testutil.Admin.ID)
	_, err := d.Start(adminCtx, &model.StartAuctionRequest{AuctionID: testutil.Auction1.ID})
	require.NoError(t, err)

	user1Ctx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	user2Ctx := testutil.NewMockContextWithUserID(ctx, testutil.User2.ID)

	_, err = bidDomain.PlaceBid(user1Ctx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID, LotID: testutil.Batsman1.ID, Amount: 200,
	})
	require.NoError(t, err)
	_, err = bidDomain.PlaceBid(user2Ctx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID, LotID: testutil.Batsman1.ID, Amount: 300,
	})
	require.NoError(t, err)

	// The undo restores the previous high bid.
	resp, err := d.UndoLastBid(adminCtx, &model.UndoLastBidRequest{AuctionID: testutil.Auction1.ID})
	require.NoError(t, err)
	require.Equal(t, int64(200), resp.CurrentBid.Amount)
	require.Equal(t, testutil.User1.ID, resp.CurrentBid.BidderID)

	// A second undo leaves the lot with no bids at all.
	resp, err = d.UndoLastBid(adminCtx, &model.UndoLastBidRequest{AuctionID: testutil.Auction1.ID})
	require.NoError(t, err)
	require.Zero(t, resp.CurrentBid.Amount)
	require.Empty(t, resp.CurrentBid.BidderID)

	lot, err := repository.NewPlayerRepository().GetByID(ctx, testutil.Batsman1.ID)
	require.NoError(t, err)
	require.False(t, lot.BiddingStarted)
	require.Zero(t, lot.CurrentBid)

	// Nothing left to undo.
	_, err = d.UndoLastBid(adminCtx, &model.UndoLastBidRequest{AuctionID: testutil.Auction1.ID})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.BadRequest, errx.Code)
}

func Test_auctionDomain_StartTimer(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d, _, _ := setupAuctionDomain(ctx)

	adminCtx := testutil.NewMockContextWithUserID(ctx, testutil.Admin.ID)
	_, err := d.Start(adminCtx, &model.StartAuctionRequest{AuctionID: testutil.Auction1.ID})
	require.NoError(t, err)

	resp, err := d.StartTimer(adminCtx, &model.StartTimerRequest{AuctionID: testutil.Auction1.ID})
	require.NoError(t, err)
	require.False(t, resp.TimerEndsAt.IsZero())

	auction, err := repository.NewAuctionRepository().GetByID(ctx, testutil.Auction1.ID)
	require.NoError(t, err)
	require.True(t, auction.TimerEndsAt.Valid)
}
