package entity

// Bid is an accepted bid record. Rejected bids are never persisted.
type Bid struct {
	Base

	AuctionID string  `gorm:"index"`
	Auction   Auction `gorm:"foreignKey:AuctionID"`

	PlayerID string `gorm:"index"`
	Player   Player `gorm:"foreignKey:PlayerID"`

	UserID string
	User   User `gorm:"foreignKey:UserID"`

	Amount int64
}
