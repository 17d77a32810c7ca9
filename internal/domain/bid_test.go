package domain

import (
	"context"
	"testing"
	"time"

	"github.com/squadbid/backend/internal/model"
	"github.com/squadbid/backend/internal/repository"
	"github.com/squadbid/backend/pkg/errorx"
	"github.com/squadbid/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func startFixtureAuction(t *testing.T) (context.Context, *auctionDomain, *bidDomain) {
	t.Helper()

	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	auctionDomain, bidDomain, _ := setupAuctionDomain(ctx)

	adminCtx := testutil.NewMockContextWithUserID(ctx, testutil.Admin.ID)
	_, err := auctionDomain.Start(adminCtx, &model.StartAuctionRequest{
		AuctionID: testutil.Auction1.ID,
	})
	require.NoError(t, err)

	return ctx, auctionDomain, bidDomain
}

func Test_bidDomain_PlaceBid(t *testing.T) {
	ctx, _, d := startFixtureAuction(t)

	userCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	resp, err := d.PlaceBid(userCtx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID,
		LotID:     testutil.Batsman1.ID,
		Amount:    150,
	})
	require.NoError(t, err)
	require.Equal(t, int64(150), resp.Bid.Amount)
	require.Equal(t, testutil.User1.ID, resp.Bid.BidderID)
	require.Equal(t, int64(150), resp.Auction.CurrentBid.Amount)
	require.True(t, resp.Auction.CurrentLot.BiddingStarted)

	// An accepted bid never touches the balance.
	bidder, err := repository.NewUserRepository().GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, testutil.User1.Balance, bidder.Balance)
	require.Equal(t, 1, bidder.BidCount)
}

func Test_bidDomain_PlaceBid_monotonicAmounts(t *testing.T) {
	ctx, _, d := startFixtureAuction(t)

	user1Ctx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	user2Ctx := testutil.NewMockContextWithUserID(ctx, testutil.User2.ID)

	_, err := d.PlaceBid(user1Ctx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID, LotID: testutil.Batsman1.ID, Amount: 200,
	})
	require.NoError(t, err)

	// An equal amount loses, regardless of arrival order.
	_, err = d.PlaceBid(user2Ctx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID, LotID: testutil.Batsman1.ID, Amount: 200,
	})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.BidTooLow, errx.Code)

	// A lower amount loses too.
	_, err = d.PlaceBid(user2Ctx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID, LotID: testutil.Batsman1.ID, Amount: 180,
	})
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.BidTooLow, errx.Code)

	// A strictly higher amount wins.
	resp, err := d.PlaceBid(user2Ctx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID, LotID: testutil.Batsman1.ID, Amount: 250,
	})
	require.NoError(t, err)
	require.Equal(t, int64(250), resp.Auction.CurrentBid.Amount)
}

func Test_bidDomain_PlaceBid_alreadyHighestBidder(t *testing.T) {
	ctx, _, d := startFixtureAuction(t)

	userCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	_, err := d.PlaceBid(userCtx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID, LotID: testutil.Batsman1.ID, Amount: 200,
	})
	require.NoError(t, err)

	// Raising against yourself is rejected even with a higher amount.
	_, err = d.PlaceBid(userCtx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID, LotID: testutil.Batsman1.ID, Amount: 300,
	})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.AlreadyHighestBidder, errx.Code)

	// The rejection left no trace.
	count, err := repository.NewBidRepository().CountByPlayerID(ctx, testutil.Batsman1.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func Test_bidDomain_PlaceBid_belowBaseValue(t *testing.T) {
	ctx, _, d := startFixtureAuction(t)

	userCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	_, err := d.PlaceBid(userCtx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID, LotID: testutil.Batsman1.ID, Amount: 99,
	})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.BelowBaseValue, errx.Code)
}

func Test_bidDomain_PlaceBid_insufficientBalance(t *testing.T) {
	ctx, _, d := startFixtureAuction(t)

	// User3 holds 50, below the base value of every lot.
	userCtx := testutil.NewMockContextWithUserID(ctx, testutil.User3.ID)
	_, err := d.PlaceBid(userCtx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID, LotID: testutil.Batsman1.ID, Amount: 100,
	})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.InsufficientBalance, errx.Code)
}

func Test_bidDomain_PlaceBid_notCurrentLot(t *testing.T) {
	ctx, _, d := startFixtureAuction(t)

	userCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	_, err := d.PlaceBid(userCtx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID, LotID: testutil.Bowler1.ID, Amount: 200,
	})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.NotCurrentLot, errx.Code)
}

func Test_bidDomain_PlaceBid_firstBidRestartsTimer(t *testing.T) {
	ctx, _, d := startFixtureAuction(t)

	// No countdown before the first bid.
	auction, err := repository.NewAuctionRepository().GetByID(ctx, testutil.Auction1.ID)
	require.NoError(t, err)
	require.False(t, auction.TimerEndsAt.Valid)

	before := time.Now()
	userCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	_, err = d.PlaceBid(userCtx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID, LotID: testutil.Batsman1.ID, Amount: 150,
	})
	require.NoError(t, err)

	// The first bid restarts the countdown with the reduced duration: 60s
	// configured, 10s reduction.
	auction, err = repository.NewAuctionRepository().GetByID(ctx, testutil.Auction1.ID)
	require.NoError(t, err)
	require.True(t, auction.TimerEndsAt.Valid)
	remaining := auction.TimerEndsAt.Time.Sub(before)
	require.Greater(t, remaining, 45*time.Second)
	require.LessOrEqual(t, remaining, 51*time.Second)
	firstEndsAt := auction.TimerEndsAt.Time

	// A later bid does not touch the countdown.
	user2Ctx := testutil.NewMockContextWithUserID(ctx, testutil.User2.ID)
	_, err = d.PlaceBid(user2Ctx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID, LotID: testutil.Batsman1.ID, Amount: 250,
	})
	require.NoError(t, err)

	auction, err = repository.NewAuctionRepository().GetByID(ctx, testutil.Auction1.ID)
	require.NoError(t, err)
	require.True(t, auction.TimerEndsAt.Time.Equal(firstEndsAt))
}
