package integration_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/localnerve/blockrelease/internal/database"
	"github.com/localnerve/blockrelease/internal/models"
	"github.com/localnerve/blockrelease/internal/release"
	"github.com/localnerve/blockrelease/internal/seed"
	"github.com/localnerve/blockrelease/internal/services"
	"github.com/localnerve/blockrelease/internal/storage"
	"github.com/localnerve/blockrelease/internal/store"
	"github.com/localnerve/blockrelease/tests/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// openDatabase starts a container of the given type and returns a migrated connection.
func openDatabase(t *testing.T, dbType string) *gorm.DB {
	t.Helper()
	settings := helpers.DatabaseSettingsFromEnv()
	if settings.Type != dbType {
		settings.Type = dbType
		settings.Image = helpers.DefaultImage(dbType)
	}

	tc, cfg := helpers.StartDatabase(t, settings)
	t.Cleanup(func() { tc.Terminate(t) })

	db, err := database.Connect(cfg, gormlogger.Warn)
	require.NoError(t, err, "connect")
	t.Cleanup(func() { database.Close(db) })
	require.NoError(t, database.AutoMigrate(db), "migrate")
	require.NoError(t, database.Ping(context.Background(), db), "ping")
	return db
}

func TestReleaseOnRealDatabases(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, dbType := range []string{"mariadb", "postgres"} {
		t.Run(dbType, func(t *testing.T) {
			db := openDatabase(t, dbType)
			t.Run("SeedAndQuery", func(t *testing.T) { testSeedAndQuery(t, db) })
			t.Run("ConcurrentSubmit", func(t *testing.T) { testConcurrentSubmit(t, db) })
			t.Run("ConcurrentPublish", func(t *testing.T) { testConcurrentPublish(t, db) })
		})
	}
}

func newServices(t *testing.T, db *gorm.DB) (*services.CatalogService, *release.Service) {
	t.Helper()
	packages, err := storage.NewPackageStore(context.Background(), "mem://localhost/integration", "")
	require.NoError(t, err)
	st := store.NewGormStore(db)
	return services.NewCatalogService(st, packages), release.NewService(st)
}

func testSeedAndQuery(t *testing.T, db *gorm.DB) {
	ctx := context.Background()
	catalog, releases := newServices(t, db)

	fx, err := seed.Load("")
	require.NoError(t, err)
	res, err := seed.Apply(ctx, catalog, releases, "integration", fx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Blocks)

	blocks, err := catalog.ListBlocks(ctx, store.BlockFilter{Keyword: "HERO", Page: store.Page{}.Normalize()})
	require.NoError(t, err)
	require.Len(t, blocks.Items, 1, "case-insensitive keyword search")

	hero := blocks.Items[0]
	require.NotNil(t, hero.ProductionVersion)
	assert.Equal(t, "1.0.0", *hero.ProductionVersion)

	pending, err := releases.ListApprovalRequests(ctx, store.ApprovalFilter{Status: models.ApprovalPending, Page: store.Page{}.Normalize()})
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending.Total)

	categories, err := catalog.BlockCategories(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, categories)
}

func nowUTC() time.Time { return time.Now().UTC() }

// Each goroutine gets its own Service so only row locks serialize them.
func testConcurrentSubmit(t *testing.T, db *gorm.DB) {
	ctx := context.Background()
	app := helpers.CreateTestApp(t, db, "Concurrency")
	block := helpers.CreateTestBlock(t, db, app, "race-submit")
	version := helpers.CreateTestVersion(t, db, block, "1.0.0", "", nowUTC())

	const workers = 6
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, releases := newServices(t, db)
			_, errs[i] = releases.SubmitApproval(ctx, "worker", version.ID)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, errors.Is(err, release.ErrConflict), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, wins)

	var count int64
	require.NoError(t, db.Model(&models.ApprovalRequest{}).Where("version_id = ?", version.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func testConcurrentPublish(t *testing.T, db *gorm.DB) {
	ctx := context.Background()
	app := helpers.CreateTestApp(t, db, "Concurrency")
	block := helpers.CreateTestBlock(t, db, app, "race-publish")

	const workers = 4
	versions := make([]*models.BlockVersion, workers)
	for i := range versions {
		versions[i] = helpers.CreateTestVersion(t, db, block, fmt.Sprintf("1.0.%d", i), "", nowUTC())
	}

	var wg sync.WaitGroup
	for _, v := range versions {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, releases := newServices(t, db)
			_, err := releases.PublishVersion(ctx, "worker", id, "staging", "")
			assert.NoError(t, err)
		}(v.ID)
	}
	wg.Wait()

	var live []models.BlockVersion
	require.NoError(t, db.Where("block_id = ? AND staging_status = ?", block.ID, models.EnvStatusPublished).Find(&live).Error)
	require.Len(t, live, 1, "exactly one version stays live in staging")

	var got models.Block
	require.NoError(t, db.First(&got, "id = ?", block.ID).Error)
	require.NotNil(t, got.StagingVersion)
	assert.Equal(t, live[0].Version, *got.StagingVersion)
}
