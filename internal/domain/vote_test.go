package domain

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/squadbid/backend/internal/entity"
	"github.com/squadbid/backend/internal/model"
	"github.com/squadbid/backend/internal/repository"
	"github.com/squadbid/backend/pkg/errorx"
	"github.com/squadbid/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func setupVoteDomain(ctx context.Context, auctionDomain AuctionDomain) (*voteDomain, *testutil.MockPublisher) {
	publisher := &testutil.MockPublisher{}
	d := NewVoteDomain(
		repository.NewAuctionRepository(),
		repository.NewPlayerRepository(),
		repository.NewVoteRepository(),
		repository.NewParticipantRepository(),
		auctionDomain,
		publisher,
	)
	return d, publisher
}

func publishedEventTypes(t *testing.T, publisher *testutil.MockPublisher) []string {
	t.Helper()

	var types []string
	for _, pack := range publisher.Packs() {
		var event model.AuctionEvent
		require.NoError(t, json.Unmarshal(pack.Msg, &event))
		types = append(types, event.Type)
	}

	return types
}

func Test_voteDomain_Cast(t *testing.T) {
	ctx, auctionDomain, _ := startFixtureAuction(t)
	d, _ := setupVoteDomain(ctx, auctionDomain)
	testutil.JoinParticipants(ctx, testutil.Auction1.ID,
		testutil.User1.ID, testutil.User2.ID, testutil.User3.ID)

	user1Ctx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	resp, err := d.Cast(user1Ctx, &model.CastVoteRequest{
		AuctionID: testutil.Auction1.ID,
		LotID:     testutil.Batsman1.ID,
		Type:      "like",
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), resp.Summary.Likes)
	require.Equal(t, int64(0), resp.Summary.Dislikes)
	require.Equal(t, int64(1), resp.Summary.Total)
	require.Equal(t, int64(1), resp.Summary.Net)

	// A re-vote replaces the previous one instead of stacking.
	resp, err = d.Cast(user1Ctx, &model.CastVoteRequest{
		AuctionID: testutil.Auction1.ID,
		LotID:     testutil.Batsman1.ID,
		Type:      "dislike",
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), resp.Summary.Likes)
	require.Equal(t, int64(1), resp.Summary.Dislikes)
	require.Equal(t, int64(1), resp.Summary.Total)
	require.Equal(t, int64(-1), resp.Summary.Net)
}

func Test_voteDomain_Cast_invalidType(t *testing.T) {
	ctx, auctionDomain, _ := startFixtureAuction(t)
	d, _ := setupVoteDomain(ctx, auctionDomain)

	user1Ctx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	_, err := d.Cast(user1Ctx, &model.CastVoteRequest{
		AuctionID: testutil.Auction1.ID,
		LotID:     testutil.Batsman1.ID,
		Type:      "meh",
	})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.BadRequest, errx.Code)
}

func Test_voteDomain_Cast_dislikeThresholdSkipsLot(t *testing.T) {
	ctx, auctionDomain, _ := startFixtureAuction(t)
	d, _ := setupVoteDomain(ctx, auctionDomain)

	// Five connected participants with a 0.8 threshold: four dislikes are
	// needed to skip the lot.
	extraUsers := []*entity.User{
		{Base: entity.Base{ID: "user4"}, Name: "user4", Role: entity.RoleUser, Balance: 500, IsActive: true},
		{Base: entity.Base{ID: "user5"}, Name: "user5", Role: entity.RoleUser, Balance: 500, IsActive: true},
	}
	userRepo := repository.NewUserRepository()
	for _, u := range extraUsers {
		require.NoError(t, userRepo.Create(ctx, u))
	}
	testutil.JoinParticipants(ctx, testutil.Auction1.ID,
		testutil.User1.ID, testutil.User2.ID, testutil.User3.ID, "user4", "user5")

	for _, userID := range []string{testutil.User1.ID, testutil.User2.ID, testutil.User3.ID} {
		userCtx := testutil.NewMockContextWithUserID(ctx, userID)
		_, err := d.Cast(userCtx, &model.CastVoteRequest{
			AuctionID: testutil.Auction1.ID,
			LotID:     testutil.Batsman1.ID,
			Type:      "dislike",
		})
		require.NoError(t, err)
	}

	// Three dislikes are below the threshold, the lot stays available.
	lot, err := repository.NewPlayerRepository().GetByID(ctx, testutil.Batsman1.ID)
	require.NoError(t, err)
	require.Equal(t, entity.PlayerAvailable, lot.Status)

	user4Ctx := testutil.NewMockContextWithUserID(ctx, "user4")
	_, err = d.Cast(user4Ctx, &model.CastVoteRequest{
		AuctionID: testutil.Auction1.ID,
		LotID:     testutil.Batsman1.ID,
		Type:      "dislike",
	})
	require.NoError(t, err)

	// The fourth dislike skips the lot and advances the rotation.
	lot, err = repository.NewPlayerRepository().GetByID(ctx, testutil.Batsman1.ID)
	require.NoError(t, err)
	require.Equal(t, entity.PlayerUnsold, lot.Status)
	require.Equal(t, entity.UnsoldUnanimousDislike, lot.UnsoldReason)

	auction, err := repository.NewAuctionRepository().GetByID(ctx, testutil.Auction1.ID)
	require.NoError(t, err)
	require.Equal(t, testutil.Batsman2.ID, auction.CurrentLotID.String)
}

func Test_voteDomain_Cast_allLikesAmongConnected(t *testing.T) {
	ctx, auctionDomain, _ := startFixtureAuction(t)
	d, publisher := setupVoteDomain(ctx, auctionDomain)
	testutil.JoinParticipants(ctx, testutil.Auction1.ID,
		testutil.User1.ID, testutil.User2.ID, testutil.User3.ID)

	// User3 likes the lot and then disconnects. Their vote stays in the
	// summary but must not count toward the celebration.
	user3Ctx := testutil.NewMockContextWithUserID(ctx, testutil.User3.ID)
	_, err := d.Cast(user3Ctx, &model.CastVoteRequest{
		AuctionID: testutil.Auction1.ID, LotID: testutil.Batsman1.ID, Type: "like",
	})
	require.NoError(t, err)

	participantRepo := repository.NewParticipantRepository()
	require.NoError(t, participantRepo.SetConnected(
		ctx, testutil.Auction1.ID, testutil.User3.ID, false))

	// Two recorded likes against two connected participants, but only one
	// connected participant has liked.
	user1Ctx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	resp, err := d.Cast(user1Ctx, &model.CastVoteRequest{
		AuctionID: testutil.Auction1.ID, LotID: testutil.Batsman1.ID, Type: "like",
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), resp.Summary.Likes)
	require.NotContains(t, publishedEventTypes(t, publisher), model.EventAllLikes)

	// Every connected participant has now liked.
	user2Ctx := testutil.NewMockContextWithUserID(ctx, testutil.User2.ID)
	_, err = d.Cast(user2Ctx, &model.CastVoteRequest{
		AuctionID: testutil.Auction1.ID, LotID: testutil.Batsman1.ID, Type: "like",
	})
	require.NoError(t, err)
	require.Contains(t, publishedEventTypes(t, publisher), model.EventAllLikes)
}

func Test_voteDomain_Cast_noSkipOnceBiddingStarted(t *testing.T) {
	ctx, auctionDomain, bidDomain := startFixtureAuction(t)
	d, _ := setupVoteDomain(ctx, auctionDomain)
	testutil.JoinParticipants(ctx, testutil.Auction1.ID,
		testutil.User1.ID, testutil.User2.ID)

	user1Ctx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	_, err := bidDomain.PlaceBid(user1Ctx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID,
		LotID:     testutil.Batsman1.ID,
		Amount:    150,
	})
	require.NoError(t, err)

	// Both connected participants dislike the lot, but a bid exists.
	for _, userID := range []string{testutil.User1.ID, testutil.User2.ID} {
		userCtx := testutil.NewMockContextWithUserID(ctx, userID)
		_, err := d.Cast(userCtx, &model.CastVoteRequest{
			AuctionID: testutil.Auction1.ID,
			LotID:     testutil.Batsman1.ID,
			Type:      "dislike",
		})
		require.NoError(t, err)
	}

	lot, err := repository.NewPlayerRepository().GetByID(ctx, testutil.Batsman1.ID)
	require.NoError(t, err)
	require.Equal(t, entity.PlayerAvailable, lot.Status)
}

func Test_voteDomain_Cast_notCurrentLot(t *testing.T) {
	ctx, auctionDomain, _ := startFixtureAuction(t)
	d, _ := setupVoteDomain(ctx, auctionDomain)

	user1Ctx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	_, err := d.Cast(user1Ctx, &model.CastVoteRequest{
		AuctionID: testutil.Auction1.ID,
		LotID:     testutil.Bowler1.ID,
		Type:      "like",
	})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.NotCurrentLot, errx.Code)
}
