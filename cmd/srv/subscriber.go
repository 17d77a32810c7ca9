package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/squadbid/backend/internal/common"
	"github.com/squadbid/backend/internal/model"
	"github.com/squadbid/backend/pkg/authenticator"
	"github.com/squadbid/backend/pkg/kafka"
	"github.com/squadbid/backend/pkg/pubsub"
	"github.com/squadbid/backend/pkg/redis"
	"github.com/squadbid/backend/pkg/ws"
	"github.com/squadbid/backend/pkg/xcontext"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// startSubscriber runs the fan-out service: it consumes the auction event
// topic and pushes every event to the connected websocket clients, keeping
// the presence mirror in sync along the way.
func (s *srv) startSubscriber(*cli.Context) error {
	s.loadConfig()
	s.loadLogger()
	s.loadDatabase()
	s.loadRepos()
	s.redisClient = redis.NewClient(s.configs.Redis.Addr)
	s.hub = ws.NewHub()

	rootCtx := context.Background()
	rootCtx = xcontext.WithConfigs(rootCtx, *s.configs)
	rootCtx = xcontext.WithLogger(rootCtx, s.logger)
	rootCtx = xcontext.WithDB(rootCtx, s.db)

	s.subscriber = kafka.NewSubscriber(
		"ws-subscriber",
		[]string{s.configs.Kafka.Addr},
		[]string{model.AuctionEventTopic},
		func(ctx context.Context, pack *pubsub.Pack, t time.Time) {
			s.hub.Broadcast(pack.Msg)
		},
	)

	tokenEngine := authenticator.NewTokenEngine[model.AccessToken](s.configs.Auth.AccessToken)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		accessToken, err := tokenEngine.Verify(r.URL.Query().Get("token"))
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		auctionID := r.URL.Query().Get("auction_id")
		if auctionID == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Errorf("Cannot upgrade the connection: %v", err)
			return
		}

		s.serveClient(rootCtx, conn, auctionID, accessToken.ID)
	})

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%s", s.configs.WsServer.Port),
		Handler: mux,
	}

	group, groupCtx := errgroup.WithContext(rootCtx)
	group.Go(func() error {
		s.logger.Infof("Starting ws server on port %s", s.configs.WsServer.Port)
		return s.server.ListenAndServe()
	})
	group.Go(func() error {
		s.subscriber.Subscribe(groupCtx)
		<-groupCtx.Done()
		return s.subscriber.Stop(groupCtx)
	})

	return group.Wait()
}

func (s *srv) serveClient(ctx context.Context, conn *websocket.Conn, auctionID, userID string) {
	events, err := s.hub.Register(userID)
	if err != nil {
		s.logger.Debugf("Cannot register client %s: %v", userID, err)
		conn.Close()
		return
	}

	s.markConnected(ctx, auctionID, userID, true)
	defer func() {
		s.hub.Unregister(userID)
		s.markConnected(ctx, auctionID, userID, false)
	}()

	client := ws.NewClient(conn)
	defer close(client.W)

	for {
		select {
		case msg, ok := <-events:
			if !ok {
				return
			}
			client.W <- msg

		case _, ok := <-client.R:
			// Inbound frames are ignored, a closed reader means the client
			// went away.
			if !ok {
				return
			}
		}
	}
}

// markConnected mirrors the connection state into the participant table and
// the redis presence set. The table drives the dislike-skip rule, the set
// serves cheap online counts.
func (s *srv) markConnected(ctx context.Context, auctionID, userID string, connected bool) {
	if err := s.participantRepo.SetConnected(ctx, auctionID, userID, connected); err != nil {
		s.logger.Errorf("Cannot update the connected flag of %s: %v", userID, err)
	}

	key := common.RedisKeyAuctionOnline(auctionID)
	var err error
	if connected {
		err = s.redisClient.SAdd(ctx, key, userID).Err()
	} else {
		err = s.redisClient.SRem(ctx, key, userID).Err()
	}
	if err != nil {
		s.logger.Errorf("Cannot update the presence set of %s: %v", userID, err)
	}
}
