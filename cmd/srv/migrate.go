package main

import (
	"context"

	"github.com/squadbid/backend/migration"
	"github.com/squadbid/backend/pkg/xcontext"

	"github.com/urfave/cli/v2"
)

func (s *srv) startMigrate(*cli.Context) error {
	s.loadConfig()
	s.loadLogger()
	s.loadDatabase()

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, *s.configs)
	ctx = xcontext.WithLogger(ctx, s.logger)
	ctx = xcontext.WithDB(ctx, s.db)

	if err := migration.Migrate(ctx); err != nil {
		return err
	}

	s.logger.Infof("Migration completed")
	return nil
}
