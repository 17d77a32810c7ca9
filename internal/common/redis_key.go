package common

import "fmt"

// RedisKeyAuctionOnline is the set of user ids currently connected to an
// auction. It mirrors the is_connected flag for the ws proxy.
func RedisKeyAuctionOnline(auctionID string) string {
	return fmt.Sprintf("auctiononline:%s", auctionID)
}
