package config

import (
	"fmt"
	"time"
)

type Configs struct {
	Env string

	Database  DatabaseConfigs
	ApiServer ServerConfigs
	WsServer  ServerConfigs
	Auth      AuthConfigs
	Redis     RedisConfigs
	Kafka     KafkaConfigs
	Auction   AuctionConfigs
}

type DatabaseConfigs struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

func (d *DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type ServerConfigs struct {
	Host string
	Port string
}

type AuthConfigs struct {
	AccessToken TokenConfigs
}

type TokenConfigs struct {
	Name       string
	Secret     string
	Expiration time.Duration
}

type RedisConfigs struct {
	Addr string
}

type KafkaConfigs struct {
	Addr string
}

// AuctionConfigs holds the live auction rules that are not stored per
// auction record.
type AuctionConfigs struct {
	// TimerDuration is the full countdown assigned to a fresh lot.
	TimerDuration time.Duration

	// MinTimerDuration is the floor applied when the countdown is restarted
	// with a reduced duration.
	MinTimerDuration time.Duration

	// BreakDuration is an optional pause signalled between categories.
	BreakDuration time.Duration

	// MaxBidRetry bounds transparent retries of a bid transaction on
	// serialization conflicts before BidFailed is surfaced.
	MaxBidRetry int
}
