package model

import (
	"time"

	"github.com/squadbid/backend/internal/entity"
	"github.com/squadbid/backend/pkg/enum"
)

func ConvertPlayer(player *entity.Player) Player {
	if player == nil {
		return Player{}
	}

	return Player{
		ID:             player.ID,
		Name:           player.Name,
		Category:       player.Category,
		BaseValue:      player.BaseValue,
		Status:         enum.ToString(player.Status),
		UnsoldReason:   enum.ToString(player.UnsoldReason),
		CurrentBid:     player.CurrentBid,
		BiddingStarted: player.BiddingStarted,
		SoldTo:         player.SoldTo.String,
		SoldPrice:      player.SoldPrice,
	}
}

func ConvertAuction(auction *entity.Auction, currentLot *entity.Player) Auction {
	if auction == nil {
		return Auction{}
	}

	result := Auction{
		ID:                   auction.ID,
		Name:                 auction.Name,
		Status:               enum.ToString(auction.Status),
		Mode:                 enum.ToString(auction.Mode),
		CategoryFlow:         auction.CategoryFlow,
		CurrentCategoryIndex: auction.CurrentCategoryIndex,
		CurrentBid: Bid{
			Amount:   auction.CurrentBidAmount,
			BidderID: auction.CurrentBidderID.String,
			PlacedAt: auction.CurrentBidAt.Time,
		},
	}

	if currentLot != nil {
		lot := ConvertPlayer(currentLot)
		result.CurrentLot = &lot
	}

	if auction.TimerStartedAt.Valid {
		result.TimerStartedAt = auction.TimerStartedAt.Time
	}

	if auction.TimerEndsAt.Valid {
		result.TimerEndsAt = auction.TimerEndsAt.Time
		if remaining := time.Until(auction.TimerEndsAt.Time); remaining > 0 {
			result.RemainingSec = int(remaining / time.Second)
		}
	}

	return result
}

func ConvertBid(bid *entity.Bid) Bid {
	if bid == nil {
		return Bid{}
	}

	return Bid{
		Amount:   bid.Amount,
		BidderID: bid.UserID,
		PlacedAt: bid.CreatedAt,
	}
}
