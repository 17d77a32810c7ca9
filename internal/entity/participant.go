package entity

import (
	"time"

	"gorm.io/gorm"
)

// AuctionParticipant tracks who joined an auction and whether they are
// currently connected. The connected subset drives the dislike-skip rule.
type AuctionParticipant struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	AuctionID string  `gorm:"primaryKey"`
	Auction   Auction `gorm:"foreignKey:AuctionID"`

	UserID string `gorm:"primaryKey"`
	User   User   `gorm:"foreignKey:UserID"`

	IsConnected bool
}
