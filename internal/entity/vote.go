package entity

import (
	"time"

	"github.com/squadbid/backend/pkg/enum"
)

type VoteType string

var (
	VoteLike    = enum.New(VoteType("like"))
	VoteDislike = enum.New(VoteType("dislike"))
)

// Vote records a participant's like or dislike on a lot. A participant
// holds at most one vote per lot at a time.
type Vote struct {
	CreatedAt time.Time
	UpdatedAt time.Time

	PlayerID string `gorm:"primaryKey"`
	Player   Player `gorm:"foreignKey:PlayerID"`

	UserID string `gorm:"primaryKey"`
	User   User   `gorm:"foreignKey:UserID"`

	Type VoteType
}
