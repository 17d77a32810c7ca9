package entity

import (
	"database/sql"

	"github.com/squadbid/backend/pkg/enum"
)

type PlayerStatusType string

var (
	PlayerAvailable = enum.New(PlayerStatusType("available"))
	PlayerSold      = enum.New(PlayerStatusType("sold"))
	PlayerUnsold    = enum.New(PlayerStatusType("unsold"))
)

type UnsoldReasonType string

var (
	UnsoldNoBids           = enum.New(UnsoldReasonType("no_bids"))
	UnsoldAdminSkip        = enum.New(UnsoldReasonType("admin_skip"))
	UnsoldUnanimousDislike = enum.New(UnsoldReasonType("unanimous_dislike"))
)

// Player is a lot. It belongs to exactly one category and is owned as
// "current lot" by at most one auction.
type Player struct {
	Base

	Name      string `gorm:"index"`
	Category  string `gorm:"index"`
	BaseValue int64

	Status       PlayerStatusType `gorm:"index;default:available"`
	UnsoldReason UnsoldReasonType

	CurrentBid      int64
	CurrentBidderID sql.NullString
	CurrentBidder   User `gorm:"foreignKey:CurrentBidderID"`
	BiddingStarted  bool

	// Set exactly once at sale, immutable afterwards.
	SoldTo    sql.NullString
	SoldPrice int64
	SoldAt    sql.NullTime
}
