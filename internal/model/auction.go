package model

import "time"

type AccessToken struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Auction struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Status               string    `json:"status"`
	Mode                 string    `json:"mode"`
	CategoryFlow         []string  `json:"category_flow"`
	CurrentCategoryIndex int       `json:"current_category_index"`
	CurrentLot           *Player   `json:"current_lot,omitempty"`
	CurrentBid           Bid       `json:"current_bid"`
	TimerStartedAt       time.Time `json:"timer_started_at,omitempty"`
	TimerEndsAt          time.Time `json:"timer_ends_at,omitempty"`
	RemainingSec         int       `json:"remaining_sec"`
}

type Player struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	BaseValue      int64  `json:"base_value"`
	Status         string `json:"status"`
	UnsoldReason   string `json:"unsold_reason,omitempty"`
	CurrentBid     int64  `json:"current_bid"`
	BiddingStarted bool   `json:"bidding_started"`
	SoldTo         string `json:"sold_to,omitempty"`
	SoldPrice      int64  `json:"sold_price,omitempty"`
}

type Bid struct {
	Amount   int64     `json:"amount"`
	BidderID string    `json:"bidder_id,omitempty"`
	PlacedAt time.Time `json:"placed_at,omitempty"`
}

type VoteSummary struct {
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
	Total    int64 `json:"total"`
	Net      int64 `json:"net"`
}

type StartAuctionRequest struct {
	AuctionID string `json:"auction_id"`
}

type StartAuctionResponse struct {
	Auction Auction `json:"auction"`
}

type PauseAuctionRequest struct {
	AuctionID string `json:"auction_id"`
}

type PauseAuctionResponse struct {
	RemainingSec int `json:"remaining_sec"`
}

type ResumeAuctionRequest struct {
	AuctionID string `json:"auction_id"`
}

type ResumeAuctionResponse struct {
	Auction Auction `json:"auction"`
}

type FinalCallRequest struct {
	AuctionID string `json:"auction_id"`
}

type FinalCallResponse struct {
	Sold             bool    `json:"sold"`
	Lot              Player  `json:"lot"`
	NextLot          *Player `json:"next_lot,omitempty"`
	CategoryAdvanced bool    `json:"category_advanced"`
	AuctionCompleted bool    `json:"auction_completed"`
}

type SkipLotRequest struct {
	AuctionID string `json:"auction_id"`
}

type SkipLotResponse struct {
	Lot              Player  `json:"lot"`
	NextLot          *Player `json:"next_lot,omitempty"`
	CategoryAdvanced bool    `json:"category_advanced"`
	AuctionCompleted bool    `json:"auction_completed"`
}

type UndoLastBidRequest struct {
	AuctionID string `json:"auction_id"`
}

type UndoLastBidResponse struct {
	CurrentBid Bid `json:"current_bid"`
}

type StartTimerRequest struct {
	AuctionID string `json:"auction_id"`
}

type StartTimerResponse struct {
	TimerEndsAt time.Time `json:"timer_ends_at"`
}

type JoinAuctionRequest struct {
	AuctionID string `json:"auction_id"`
}

type JoinAuctionResponse struct{}

type GetAuctionRequest struct {
	AuctionID string `json:"auction_id"`
}

type GetAuctionResponse struct {
	Auction Auction `json:"auction"`
}
