package seed_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/localnerve/blockrelease/internal/models"
	"github.com/localnerve/blockrelease/internal/release"
	"github.com/localnerve/blockrelease/internal/seed"
	"github.com/localnerve/blockrelease/internal/services"
	"github.com/localnerve/blockrelease/internal/storage"
	"github.com/localnerve/blockrelease/internal/store"
	"github.com/localnerve/blockrelease/tests/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedDemo(t *testing.T) {
	fx, err := seed.Load("")
	require.NoError(t, err)
	require.Len(t, fx.Apps, 2)
	assert.Equal(t, "Storefront", fx.Apps[0].Name)
	assert.Len(t, fx.Apps[0].Blocks, 2)
}

func TestParseRejectsBadFixtures(t *testing.T) {
	cases := map[string]string{
		"unknown field":       "apps:\n  - name: a\n    colour: red\n",
		"missing app name":    "apps:\n  - description: nameless\n",
		"unknown environment": "apps:\n  - name: a\n    blocks:\n      - name: b\n        versions:\n          - version: 1.0.0\n            publish: [qa]\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := seed.Parse([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestParseApproveImpliesSubmit(t *testing.T) {
	fx, err := seed.Parse([]byte("apps:\n  - name: a\n    blocks:\n      - name: b\n        versions:\n          - version: 1.0.0\n            approve: true\n"))
	require.NoError(t, err)
	assert.True(t, fx.Apps[0].Blocks[0].Versions[0].Submit)
}

func TestApplyDemo(t *testing.T) {
	ctx := context.Background()
	db := helpers.SetupTestDB(t)
	st := store.NewGormStore(db)

	packages, err := storage.NewPackageStore(ctx, "mem://localhost/seed-"+uuid.NewString(), "")
	require.NoError(t, err)

	catalog := services.NewCatalogService(st, packages)
	releases := release.NewService(st)

	fx, err := seed.Load("")
	require.NoError(t, err)

	res, err := seed.Apply(ctx, catalog, releases, "seeder", fx)
	require.NoError(t, err)
	assert.Equal(t, seed.Result{Apps: 2, Members: 3, Blocks: 3, Versions: 4, Approvals: 1, Publishes: 3}, res)

	blocks, err := st.ListBlocks(ctx, store.BlockFilter{Keyword: "hero"})
	require.NoError(t, err)
	require.Len(t, blocks.Items, 1)
	hero := blocks.Items[0]
	require.NotNil(t, hero.StagingVersion)
	require.NotNil(t, hero.ProductionVersion)
	assert.Equal(t, "1.1.0", *hero.StagingVersion)
	assert.Equal(t, "1.0.0", *hero.ProductionVersion)
	assert.Equal(t, "1.1.0", *hero.LatestVersion)

	pending, err := st.ListApprovalRequests(ctx, store.ApprovalFilter{Status: models.ApprovalPending})
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending.Total)
	assert.Equal(t, "2.0.0", pending.Items[0].Version)
}
