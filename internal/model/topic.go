package model

// AuctionEventTopic carries every outbound engine event. The ws subscriber
// consumes it and fans messages out to connected clients.
const AuctionEventTopic = "auction-events"

const (
	EventBidAccepted      = "bidAccepted"
	EventBidUndone        = "bidUndone"
	EventLotSold          = "lotSold"
	EventLotUnsold        = "lotUnsold"
	EventLotAdvanced      = "lotAdvanced"
	EventCategoryAdvanced = "categoryAdvanced"
	EventAuctionStarted   = "auctionStarted"
	EventAuctionPaused    = "auctionPaused"
	EventAuctionResumed   = "auctionResumed"
	EventAuctionCompleted = "auctionCompleted"
	EventVoteUpdated      = "voteUpdated"
	EventAllLikes         = "allLikes"
	EventTimerStarted     = "timerStarted"
	EventTimerRestarted   = "timerRestarted"
	EventTimerExpired     = "timerExpired"
)

// AuctionEvent is the payload published for every event type. Optional
// fields are filled depending on Type.
type AuctionEvent struct {
	Type      string       `json:"type"`
	AuctionID string       `json:"auction_id"`
	Auction   *Auction     `json:"auction,omitempty"`
	Lot       *Player      `json:"lot,omitempty"`
	Bid       *Bid         `json:"bid,omitempty"`
	Summary   *VoteSummary `json:"summary,omitempty"`
	Reason    string       `json:"reason,omitempty"`
	BreakSec  int          `json:"break_sec,omitempty"`
}
