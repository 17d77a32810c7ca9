package model

type PlaceBidRequest struct {
	AuctionID string `json:"auction_id"`
	LotID     string `json:"lot_id"`
	Amount    int64  `json:"amount"`
}

type PlaceBidResponse struct {
	Bid     Bid     `json:"bid"`
	Auction Auction `json:"auction"`
}
