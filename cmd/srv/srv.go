package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/squadbid/backend/config"
	"github.com/squadbid/backend/internal/domain"
	"github.com/squadbid/backend/internal/domain/auctiontimer"
	"github.com/squadbid/backend/internal/repository"
	"github.com/squadbid/backend/pkg/kafka"
	"github.com/squadbid/backend/pkg/logger"
	"github.com/squadbid/backend/pkg/pubsub"
	"github.com/squadbid/backend/pkg/router"
	"github.com/squadbid/backend/pkg/ws"
	"github.com/urfave/cli/v2"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type srv struct {
	app *cli.App

	configs *config.Configs
	logger  logger.Logger
	db      *gorm.DB

	redisClient *redis.Client
	publisher   pubsub.Publisher
	subscriber  pubsub.Subscriber
	hub         *ws.Hub
	timerCenter *auctiontimer.Center

	userRepo        repository.UserRepository
	auctionRepo     repository.AuctionRepository
	playerRepo      repository.PlayerRepository
	bidRepo         repository.BidRepository
	voteRepo        repository.VoteRepository
	participantRepo repository.ParticipantRepository

	auctionDomain domain.AuctionDomain
	bidDomain     domain.BidDomain
	voteDomain    domain.VoteDomain

	router *router.Router
	server *http.Server
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		panic(err)
	}

	return d
}

func parseInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		panic(err)
	}

	return n
}

func (s *srv) loadConfig() {
	s.configs = &config.Configs{
		Env: getEnv("ENV", "local"),
		Database: config.DatabaseConfigs{
			Host:     getEnv("MYSQL_HOST", "localhost"),
			Port:     getEnv("MYSQL_PORT", "3306"),
			User:     getEnv("MYSQL_USER", "squadbid"),
			Password: getEnv("MYSQL_PASSWORD", "squadbid"),
			Database: getEnv("MYSQL_DATABASE", "squadbid"),
		},
		ApiServer: config.ServerConfigs{
			Host: getEnv("API_HOST", "localhost"),
			Port: getEnv("API_PORT", "8080"),
		},
		WsServer: config.ServerConfigs{
			Host: getEnv("WS_HOST", "localhost"),
			Port: getEnv("WS_PORT", "8081"),
		},
		Auth: config.AuthConfigs{
			AccessToken: config.TokenConfigs{
				Name:       "access_token",
				Secret:     getEnv("TOKEN_SECRET", "token_secret"),
				Expiration: parseDuration(getEnv("TOKEN_EXPIRATION", "24h")),
			},
		},
		Redis: config.RedisConfigs{
			Addr: getEnv("REDIS_ADDRESS", "localhost:6379"),
		},
		Kafka: config.KafkaConfigs{
			Addr: getEnv("KAFKA_ADDRESS", "localhost:9092"),
		},
		Auction: config.AuctionConfigs{
			TimerDuration:    parseDuration(getEnv("AUCTION_TIMER_DURATION", "60s")),
			MinTimerDuration: parseDuration(getEnv("AUCTION_MIN_TIMER_DURATION", "10s")),
			BreakDuration:    parseDuration(getEnv("AUCTION_BREAK_DURATION", "120s")),
			MaxBidRetry:      parseInt(getEnv("AUCTION_MAX_BID_RETRY", "3")),
		},
	}
}

func (s *srv) loadLogger() {
	level := logger.INFO
	if s.configs.Env == "local" {
		level = logger.DEBUG
	}

	s.logger = logger.NewLogger(level)
}

func (s *srv) loadDatabase() {
	var err error
	s.db, err = gorm.Open(mysql.Open(s.configs.Database.ConnectionString()), &gorm.Config{})
	if err != nil {
		panic(err)
	}
}

func (s *srv) loadPublisher() {
	s.publisher = kafka.NewPublisher("auction-engine", []string{s.configs.Kafka.Addr})
}

func (s *srv) loadRepos() {
	s.userRepo = repository.NewUserRepository()
	s.auctionRepo = repository.NewAuctionRepository()
	s.playerRepo = repository.NewPlayerRepository()
	s.bidRepo = repository.NewBidRepository()
	s.voteRepo = repository.NewVoteRepository()
	s.participantRepo = repository.NewParticipantRepository()
}

func (s *srv) loadDomains(ctx context.Context) {
	s.timerCenter = auctiontimer.NewCenter(ctx)
	s.auctionDomain = domain.NewAuctionDomain(
		s.auctionRepo, s.playerRepo, s.userRepo, s.bidRepo, s.participantRepo,
		s.timerCenter, s.publisher)
	s.bidDomain = domain.NewBidDomain(
		s.auctionRepo, s.playerRepo, s.userRepo, s.bidRepo,
		s.timerCenter, s.publisher)
	s.voteDomain = domain.NewVoteDomain(
		s.auctionRepo, s.playerRepo, s.voteRepo, s.participantRepo,
		s.auctionDomain, s.publisher)
}
