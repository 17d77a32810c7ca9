package errorx

type Code int

var Unknown = Error{Code: 100000, Message: "Request failed"}

const (
	// Common codes
	BadRequest       Code = 100001
	BadResponse      Code = 100002
	PermissionDenied Code = 100003
	NotFound         Code = 100004
	Unauthenticated  Code = 100005
	AlreadyExists    Code = 100006
	Internal         Code = 100007
	Unavailable      Code = 100008
	NotImplemented   Code = 100009
	TooManyRequests  Code = 100010

	// Auction state codes
	InvalidTransition       Code = 200001
	ConcurrentAuctionExists Code = 200002
	NoAvailableLots         Code = 200003
	AuctionNotActive        Code = 200004

	// Bid codes
	NotCurrentLot        Code = 300001
	LotUnavailable       Code = 300002
	BidTooLow            Code = 300003
	BelowBaseValue       Code = 300004
	AlreadyHighestBidder Code = 300005
	InsufficientBalance  Code = 300006
	BidderIneligible     Code = 300007
	BidFailed            Code = 300008
)
