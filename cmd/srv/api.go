package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/squadbid/backend/internal/middleware"
	"github.com/squadbid/backend/pkg/router"
	"github.com/squadbid/backend/pkg/xcontext"

	"github.com/urfave/cli/v2"
)

func (s *srv) startApi(*cli.Context) error {
	s.loadConfig()
	s.loadLogger()
	s.loadDatabase()
	s.loadPublisher()
	s.loadRepos()

	// The timer center fires outside any request, so its root context must
	// carry the same db, configs and logger a request context does.
	rootCtx := context.Background()
	rootCtx = xcontext.WithConfigs(rootCtx, *s.configs)
	rootCtx = xcontext.WithLogger(rootCtx, s.logger)
	rootCtx = xcontext.WithDB(rootCtx, s.db)
	s.loadDomains(rootCtx)

	s.loadRouter()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%s", s.configs.ApiServer.Port),
		Handler: s.router.Handler(),
	}

	s.logger.Infof("Starting api server on port %s", s.configs.ApiServer.Port)
	if err := s.server.ListenAndServe(); err != nil {
		panic(err)
	}

	return nil
}

func (s *srv) loadRouter() {
	s.router = router.New(s.db, *s.configs, s.logger)
	s.router.AddCloser(middleware.Logger())
	s.router.Before(middleware.ParseToken())

	// Public API.
	router.GET(s.router, "/getAuction", s.auctionDomain.Get)

	// These following APIs need authentication.
	authRouter := s.router.Branch()
	authRouter.Before(middleware.Authenticate())
	{
		router.POST(authRouter, "/joinAuction", s.auctionDomain.Join)
		router.POST(authRouter, "/placeBid", s.bidDomain.PlaceBid)
		router.POST(authRouter, "/castVote", s.voteDomain.Cast)
	}

	// These following APIs are restricted to the auctioneer.
	adminRouter := authRouter.Branch()
	adminRouter.Before(middleware.NewOnlyAdmin(s.userRepo).Middleware())
	{
		router.POST(adminRouter, "/startAuction", s.auctionDomain.Start)
		router.POST(adminRouter, "/pauseAuction", s.auctionDomain.Pause)
		router.POST(adminRouter, "/resumeAuction", s.auctionDomain.Resume)
		router.POST(adminRouter, "/finalCall", s.auctionDomain.FinalCall)
		router.POST(adminRouter, "/skipLot", s.auctionDomain.Skip)
		router.POST(adminRouter, "/undoLastBid", s.auctionDomain.UndoLastBid)
		router.POST(adminRouter, "/startTimer", s.auctionDomain.StartTimer)
	}
}
