package main

import (
	"context"
	"fmt"

	"github.com/localnerve/blockrelease/internal/config"
	"github.com/localnerve/blockrelease/internal/database"
	"github.com/localnerve/blockrelease/internal/release"
	"github.com/localnerve/blockrelease/internal/seed"
	"github.com/localnerve/blockrelease/internal/services"
	"github.com/localnerve/blockrelease/internal/storage"
	"github.com/localnerve/blockrelease/internal/store"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// env is an open connection plus the services built on it.
type env struct {
	cfg      *config.Config
	db       *gorm.DB
	store    *store.GormStore
	releases *release.Service
}

func connect(opts *rootOptions) (*env, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.Connect(cfg, gormlogger.Warn)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.DBAppDatabase, err)
	}
	st := store.NewGormStore(db)
	return &env{cfg: cfg, db: db, store: st, releases: release.NewService(st)}, nil
}

func (e *env) Close() {
	_ = database.Close(e.db)
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := database.AutoMigrate(e.db); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %s database %s\n", e.cfg.DBType, e.cfg.DBAppDatabase)
			return nil
		},
	}
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var fixturesPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load fixtures through the release workflow",
		Long:  "Creates the apps, members, blocks and versions of a YAML fixture file, then submits, approves and publishes as the file says. Without -f the built-in demo set is used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			fx, err := seed.Load(fixturesPath)
			if err != nil {
				return err
			}

			e, err := connect(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := database.AutoMigrate(e.db); err != nil {
				return err
			}

			ctx := context.Background()
			packages, err := storage.NewPackageStore(ctx, e.cfg.PackageStoreURL, e.cfg.PackagePublicURL)
			if err != nil {
				return err
			}
			catalog := services.NewCatalogService(e.store, packages)

			res, err := seed.Apply(ctx, catalog, e.releases, opts.actor, fx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d apps, %d members, %d blocks, %d versions (%d approved, %d publications)\n",
				res.Apps, res.Members, res.Blocks, res.Versions, res.Approvals, res.Publishes)
			return nil
		},
	}

	cmd.Flags().StringVarP(&fixturesPath, "file", "f", "", "YAML fixture file (default: built-in demo set)")
	return cmd
}
