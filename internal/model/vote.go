package model

type CastVoteRequest struct {
	AuctionID string `json:"auction_id"`
	LotID     string `json:"lot_id"`
	Type      string `json:"type"`
}

type CastVoteResponse struct {
	Summary VoteSummary `json:"summary"`
}
