package release_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/localnerve/blockrelease/internal/models"
	"github.com/localnerve/blockrelease/internal/registry"
	"github.com/localnerve/blockrelease/internal/release"
	"github.com/localnerve/blockrelease/internal/store"
	"github.com/localnerve/blockrelease/tests/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	store *store.GormStore
	svc   *release.Service
	block *models.Block
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := helpers.SetupTestDB(t)
	f := &fixture{
		db:    db,
		store: store.NewGormStore(db),
		clock: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	// every call advances the clock so orderings are deterministic
	var mu sync.Mutex
	f.svc = release.NewService(f.store, release.WithClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		f.clock = f.clock.Add(time.Second)
		return f.clock
	}))
	app := helpers.CreateTestApp(t, db, "Storefront")
	f.block = helpers.CreateTestBlock(t, db, app, "Hero")
	return f
}

func (f *fixture) version(t *testing.T, version, region string) *models.BlockVersion {
	t.Helper()
	return helpers.CreateTestVersion(t, f.db, f.block, version, region, f.clock)
}

func (f *fixture) reload(t *testing.T, versionID string) (*models.BlockVersion, *models.Block) {
	t.Helper()
	ctx := context.Background()
	v, err := f.store.GetVersion(ctx, versionID)
	require.NoError(t, err)
	b, err := f.store.GetBlock(ctx, v.BlockID)
	require.NoError(t, err)
	return v, b
}

func (f *fixture) approve(t *testing.T, versionID string) {
	t.Helper()
	ctx := context.Background()
	req, err := f.svc.SubmitApproval(ctx, "alice", versionID)
	require.NoError(t, err)
	_, err = f.svc.ApproveRequest(ctx, "bob", req.ID, "")
	require.NoError(t, err)
}

func assertInvariant(t *testing.T, v *models.BlockVersion) {
	t.Helper()
	for _, env := range registry.EnvironmentKeys() {
		live := v.HasEnvironment(env)
		switch env {
		case registry.EnvStaging:
			assert.Equal(t, live, v.StagingStatus == models.EnvStatusPublished, "staging status of %s", v.Version)
			assert.Equal(t, live, v.StagingPublishedAt != nil, "staging timestamp of %s", v.Version)
		case registry.EnvProduction:
			assert.Equal(t, live, v.ProductionStatus == models.EnvStatusPublished, "production status of %s", v.Version)
			assert.Equal(t, live, v.ProductionPublishedAt != nil, "production timestamp of %s", v.Version)
		}
	}
}

func TestEndToEndRelease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	assert.Equal(t, models.BlockStatusDraft, f.block.Status)

	v1 := f.version(t, "1.0.0", registry.DefaultRegion)
	assert.Equal(t, models.VersionStatusDraft, v1.Status)
	assert.Empty(t, v1.Environments)

	req, err := f.svc.SubmitApproval(ctx, "alice", v1.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	_, b := f.reload(t, v1.ID)
	assert.Equal(t, models.BlockStatusPending, b.Status)
	list, err := f.svc.ListApprovalRequests(ctx, store.ApprovalFilter{Status: models.ApprovalPending})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Total)

	_, err = f.svc.ApproveRequest(ctx, "bob", req.ID, "ship it")
	require.NoError(t, err)
	v, b := f.reload(t, v1.ID)
	assert.Equal(t, models.VersionStatusApproved, v.Status)
	assert.Equal(t, models.EnvStatusApproved, v.ProductionStatus)
	assert.Equal(t, models.BlockStatusApproved, b.Status)

	_, err = f.svc.PublishVersion(ctx, "carol", v1.ID, registry.EnvProduction, "")
	require.NoError(t, err)
	v, b = f.reload(t, v1.ID)
	assert.Equal(t, []string{registry.EnvProduction}, []string(v.Environments))
	require.NotNil(t, b.ProductionVersion)
	assert.Equal(t, "1.0.0", *b.ProductionVersion)
	assert.Equal(t, models.BlockStatusPublished, b.Status)
	assertInvariant(t, v)

	_, err = f.svc.UnpublishVersion(ctx, "carol", v1.ID, registry.EnvProduction)
	require.NoError(t, err)
	v, b = f.reload(t, v1.ID)
	assert.Empty(t, v.Environments)
	assert.Nil(t, b.ProductionVersion)
	assert.Equal(t, models.VersionStatusApproved, v.Status)
	assertInvariant(t, v)
}

func TestDoublePublishConflictsWithoutDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v1 := f.version(t, "1.0.0", "cn")

	_, err := f.svc.PublishVersion(ctx, "carol", v1.ID, registry.EnvStaging, "cn")
	require.NoError(t, err)
	afterFirstV, afterFirstB := f.reload(t, v1.ID)

	_, err = f.svc.PublishVersion(ctx, "carol", v1.ID, registry.EnvStaging, "cn")
	require.Error(t, err)
	assert.True(t, errors.Is(err, release.ErrConflict), "got %v", err)
	assert.Contains(t, err.Error(), registry.EnvironmentLabel(registry.EnvStaging))

	afterSecondV, afterSecondB := f.reload(t, v1.ID)
	assert.Equal(t, afterFirstV, afterSecondV)
	assert.Equal(t, afterFirstB, afterSecondB)
}

func TestUnpublishNotLiveConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v1 := f.version(t, "1.0.0", "cn")
	beforeV, beforeB := f.reload(t, v1.ID)

	_, err := f.svc.UnpublishVersion(ctx, "carol", v1.ID, registry.EnvProduction)
	require.Error(t, err)
	assert.True(t, errors.Is(err, release.ErrConflict), "got %v", err)
	assert.Contains(t, err.Error(), registry.EnvironmentLabel(registry.EnvProduction))

	afterV, afterB := f.reload(t, v1.ID)
	assert.Equal(t, beforeV, afterV)
	assert.Equal(t, beforeB, afterB)
}

func TestProductionRequiresApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v1 := f.version(t, "1.0.0", "cn")

	_, err := f.svc.PublishVersion(ctx, "carol", v1.ID, registry.EnvProduction, "")
	assert.True(t, errors.Is(err, release.ErrInvalidState), "got %v", err)

	req, err := f.svc.SubmitApproval(ctx, "alice", v1.ID)
	require.NoError(t, err)
	_, err = f.svc.PublishVersion(ctx, "carol", v1.ID, registry.EnvProduction, "")
	assert.True(t, errors.Is(err, release.ErrInvalidState), "pending is not approved, got %v", err)

	_, err = f.svc.ApproveRequest(ctx, "bob", req.ID, "")
	require.NoError(t, err)
	_, err = f.svc.PublishVersion(ctx, "carol", v1.ID, registry.EnvProduction, "")
	assert.NoError(t, err)
}

func TestSecondSubmitConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v1 := f.version(t, "1.0.0", "cn")

	_, err := f.svc.SubmitApproval(ctx, "alice", v1.ID)
	require.NoError(t, err)
	_, err = f.svc.SubmitApproval(ctx, "alice", v1.ID)
	assert.True(t, errors.Is(err, release.ErrConflict), "got %v", err)

	list, err := f.svc.ListApprovalRequests(ctx, store.ApprovalFilter{VersionID: v1.ID, Status: models.ApprovalPending})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Total)
}

func TestResubmitAfterReject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v1 := f.version(t, "1.0.0", "cn")

	req, err := f.svc.SubmitApproval(ctx, "alice", v1.ID)
	require.NoError(t, err)

	_, err = f.svc.RejectRequest(ctx, "bob", req.ID, "")
	assert.True(t, errors.Is(err, release.ErrValidation), "got %v", err)

	rejected, err := f.svc.RejectRequest(ctx, "bob", req.ID, "missing changelog")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalRejected, rejected.Status)
	v, b := f.reload(t, v1.ID)
	assert.Equal(t, models.EnvStatusRejected, v.ProductionStatus)
	assert.Equal(t, models.BlockStatusPending, b.Status, "reject leaves the block alone")

	_, err = f.svc.ApproveRequest(ctx, "bob", req.ID, "")
	assert.True(t, errors.Is(err, release.ErrInvalidState), "terminated requests are immutable, got %v", err)

	again, err := f.svc.SubmitApproval(ctx, "alice", v1.ID)
	require.NoError(t, err)
	latest, err := f.svc.LatestApprovalForVersion(ctx, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, again.ID, latest.ID)
}

func TestRejectAfterRetractStaysConsistent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v1 := f.version(t, "1.0.0", "cn")
	f.approve(t, v1.ID)

	_, err := f.svc.PublishVersion(ctx, "carol", v1.ID, registry.EnvProduction, "")
	require.NoError(t, err)
	_, err = f.svc.UnpublishVersion(ctx, "carol", v1.ID, registry.EnvProduction)
	require.NoError(t, err)

	req, err := f.svc.SubmitApproval(ctx, "alice", v1.ID)
	require.NoError(t, err)
	_, err = f.svc.RejectRequest(ctx, "bob", req.ID, "regression found")
	require.NoError(t, err)

	v, _ := f.reload(t, v1.ID)
	assert.NotNil(t, v.PublishedAt)
	assert.Equal(t, models.EnvStatusRejected, v.ProductionStatus)
	assert.Equal(t, models.VersionStatusDraft, v.Status)

	_, err = f.svc.PublishVersion(ctx, "carol", v1.ID, registry.EnvProduction, "")
	assert.True(t, errors.Is(err, release.ErrInvalidState), "got %v", err)
}

func TestArchivedBlockStaysArchived(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v1 := f.version(t, "1.0.0", "cn")
	v2 := f.version(t, "1.1.0", "cn")

	req, err := f.svc.SubmitApproval(ctx, "alice", v2.ID)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Block{}).Where("id = ?", f.block.ID).
		Update("status", models.BlockStatusArchived).Error)

	_, err = f.svc.SubmitApproval(ctx, "alice", v1.ID)
	assert.True(t, errors.Is(err, release.ErrInvalidState), "got %v", err)
	_, err = f.svc.ApproveRequest(ctx, "bob", req.ID, "")
	assert.True(t, errors.Is(err, release.ErrInvalidState), "got %v", err)
	_, err = f.svc.PublishVersion(ctx, "carol", v1.ID, registry.EnvStaging, "")
	assert.True(t, errors.Is(err, release.ErrInvalidState), "got %v", err)

	_, err = f.svc.RejectRequest(ctx, "bob", req.ID, "block archived")
	require.NoError(t, err)

	v, b := f.reload(t, v1.ID)
	assert.Equal(t, models.BlockStatusArchived, b.Status)
	assert.Empty(t, v.Environments)
	assert.Nil(t, b.StagingVersion)
}

func TestListApprovalRequestsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []string
	for _, v := range []string{"1.0.0", "1.1.0", "1.2.0"} {
		ver := f.version(t, v, "cn")
		req, err := f.svc.SubmitApproval(ctx, "alice", ver.ID)
		require.NoError(t, err)
		ids = append(ids, req.ID)
	}

	list, err := f.svc.ListApprovalRequests(ctx, store.ApprovalFilter{})
	require.NoError(t, err)
	require.Len(t, list.Items, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]},
		[]string{list.Items[0].ID, list.Items[1].ID, list.Items[2].ID})

	_, err = f.svc.ListApprovalRequests(ctx, store.ApprovalFilter{Status: "bogus"})
	assert.True(t, errors.Is(err, release.ErrValidation), "got %v", err)
}

func TestUnpublishOneOfTwoEnvironments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v1 := f.version(t, "1.0.0", "cn")
	f.approve(t, v1.ID)

	_, err := f.svc.PublishVersion(ctx, "carol", v1.ID, registry.EnvStaging, "")
	require.NoError(t, err)
	_, err = f.svc.PublishVersion(ctx, "carol", v1.ID, registry.EnvProduction, "")
	require.NoError(t, err)

	_, err = f.svc.UnpublishVersion(ctx, "carol", v1.ID, registry.EnvStaging)
	require.NoError(t, err)

	v, b := f.reload(t, v1.ID)
	assert.Equal(t, []string{registry.EnvProduction}, []string(v.Environments))
	assert.Equal(t, models.EnvStatusPublished, v.ProductionStatus)
	assert.Equal(t, models.VersionStatusPublished, v.Status)
	assert.Nil(t, b.StagingVersion)
	require.NotNil(t, b.ProductionVersion)
	assert.Equal(t, "1.0.0", *b.ProductionVersion)
	assertInvariant(t, v)
}

func TestPublishDisplacesPreviousHolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v1 := f.version(t, "1.0.0", "cn")
	v2 := f.version(t, "1.1.0", "cn")
	us := f.version(t, "1.0.0", "us")

	for _, id := range []string{v1.ID, us.ID, v2.ID} {
		_, err := f.svc.PublishVersion(ctx, "carol", id, registry.EnvStaging, "")
		require.NoError(t, err)
	}

	old, b := f.reload(t, v1.ID)
	assert.Empty(t, old.Environments)
	assert.Equal(t, models.EnvStatusUnpublished, old.StagingStatus)
	assertInvariant(t, old)
	require.NotNil(t, b.StagingVersion)
	assert.Equal(t, "1.1.0", *b.StagingVersion)

	other, _ := f.reload(t, us.ID)
	assert.True(t, other.HasEnvironment(registry.EnvStaging), "other regions keep their own lineage")

	live, err := f.store.ListVersions(ctx, store.VersionFilter{BlockID: f.block.ID, Region: "cn", Environment: registry.EnvStaging})
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, v2.ID, live[0].ID)

	// Retracting the newest holder repoints the block to the other live region.
	_, err = f.svc.UnpublishVersion(ctx, "carol", v2.ID, registry.EnvStaging)
	require.NoError(t, err)
	_, b = f.reload(t, v2.ID)
	require.NotNil(t, b.StagingVersion)
	assert.Equal(t, "1.0.0", *b.StagingVersion)
}

func TestConcurrentPublishSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v1 := f.version(t, "1.0.0", "cn")

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.PublishVersion(ctx, "carol", v1.ID, registry.EnvStaging, "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, release.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)
	v, _ := f.reload(t, v1.ID)
	assert.Equal(t, []string{registry.EnvStaging}, []string(v.Environments))
}

func TestCommandValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v1 := f.version(t, "1.0.0", "cn")

	_, err := f.svc.SubmitApproval(ctx, " ", v1.ID)
	assert.True(t, errors.Is(err, release.ErrValidation), "got %v", err)

	_, err = f.svc.SubmitApproval(ctx, "alice", "missing")
	assert.True(t, errors.Is(err, release.ErrNotFound), "got %v", err)

	_, err = f.svc.ApproveRequest(ctx, "bob", "missing", "")
	assert.True(t, errors.Is(err, release.ErrNotFound), "got %v", err)

	_, err = f.svc.RejectRequest(ctx, "bob", "missing", "")
	assert.True(t, errors.Is(err, release.ErrValidation), "comment is checked first, got %v", err)

	_, err = f.svc.PublishVersion(ctx, "carol", v1.ID, "canary", "")
	assert.True(t, errors.Is(err, release.ErrValidation), "got %v", err)

	_, err = f.svc.PublishVersion(ctx, "carol", v1.ID, registry.EnvStaging, "mars")
	assert.True(t, errors.Is(err, release.ErrValidation), "got %v", err)

	_, err = f.svc.PublishVersion(ctx, "carol", v1.ID, registry.EnvStaging, "us")
	assert.True(t, errors.Is(err, release.ErrInvalidState), "got %v", err)

	_, err = f.svc.ListBlockVersions(ctx, "missing", "")
	assert.True(t, errors.Is(err, release.ErrNotFound), "got %v", err)

	_, err = f.svc.LatestApprovalForVersion(ctx, v1.ID)
	assert.True(t, errors.Is(err, release.ErrNotFound), "got %v", err)
}

func TestListBlockVersions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.version(t, "1.0.0", "cn")
	f.clock = f.clock.Add(time.Minute)
	f.version(t, "1.1.0", registry.AllRegions)
	f.clock = f.clock.Add(time.Minute)
	f.version(t, "1.2.0", "us")

	got, err := f.svc.ListBlockVersions(ctx, f.block.ID, "cn")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1.1.0", got[0].Version)
	assert.Equal(t, "1.0.0", got[1].Version)

	got, err = f.svc.ListBlockVersions(ctx, f.block.ID, registry.AllRegions)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
