package entity

import (
	"database/sql"
	"time"

	"github.com/squadbid/backend/pkg/enum"
)

type AuctionStatusType string

var (
	AuctionUpcoming  = enum.New(AuctionStatusType("upcoming"))
	AuctionOngoing   = enum.New(AuctionStatusType("ongoing"))
	AuctionPaused    = enum.New(AuctionStatusType("paused"))
	AuctionCompleted = enum.New(AuctionStatusType("completed"))
)

type AuctionModeType string

var (
	AuctionModeAuto   = enum.New(AuctionModeType("auto"))
	AuctionModeManual = enum.New(AuctionModeType("manual"))
)

// Auction is a single live event. At most one auction system-wide may be in
// ongoing or paused status at any time.
type Auction struct {
	Base

	Name   string
	Status AuctionStatusType `gorm:"index"`
	Mode   AuctionModeType

	// CategoryFlow is the ordered list of category tags the auction
	// traverses. Fixed at creation.
	CategoryFlow         Array[string]
	CurrentCategoryIndex int

	CurrentLotID sql.NullString
	CurrentLot   Player `gorm:"foreignKey:CurrentLotID"`

	// Running high bid of the active lot. Amount is zero and bidder null
	// when no bid has been placed yet.
	CurrentBidAmount int64
	CurrentBidderID  sql.NullString
	CurrentBidder    User `gorm:"foreignKey:CurrentBidderID"`
	CurrentBidAt     sql.NullTime

	// Countdown bound to the current lot. Both null when no countdown is
	// running.
	TimerStartedAt sql.NullTime
	TimerEndsAt    sql.NullTime

	// PausedRemainingSec snapshots the countdown when the auction pauses.
	PausedRemainingSec int

	RestartTimerAfterFirstBid bool
	RestartTimerReductionSec  int
	SkipThreshold             float64

	CreatedBy string
}

// LiveAuctionSlot is the fixed primary key of the single LiveAuction row.
const LiveAuctionSlot = "live"

// LiveAuction is a single-row table serializing auction starts. The fixed
// primary key makes the database reject a second live auction no matter how
// the starting transactions interleave. The row exists exactly while an
// auction is ongoing or paused.
type LiveAuction struct {
	Slot      string `gorm:"primaryKey"`
	AuctionID string
	CreatedAt time.Time
}
