package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/localnerve/blockrelease/internal/models"
	"github.com/localnerve/blockrelease/internal/registry"
	"github.com/localnerve/blockrelease/internal/store"
	"github.com/localnerve/blockrelease/tests/helpers"
)

func TestPageNormalize(t *testing.T) {
	tests := []struct {
		in   store.Page
		want store.Page
	}{
		{store.Page{}, store.Page{Page: 1, PageSize: 20}},
		{store.Page{Page: 3, PageSize: 500}, store.Page{Page: 3, PageSize: 100}},
		{store.Page{Page: -2, PageSize: 5}, store.Page{Page: 1, PageSize: 5}},
	}
	for _, tt := range tests {
		if got := tt.in.Normalize(); got != tt.want {
			t.Errorf("Normalize(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestNewPaginatedTotalPages(t *testing.T) {
	p := store.NewPaginated([]int{1, 2}, 41, store.Page{Page: 1, PageSize: 20})
	if p.TotalPages != 3 {
		t.Errorf("Expected 3 pages, got %d", p.TotalPages)
	}
	empty := store.NewPaginated[int](nil, 0, store.Page{Page: 1, PageSize: 20})
	if empty.Items == nil || empty.TotalPages != 0 {
		t.Errorf("Expected empty non-nil items and 0 pages, got %+v", empty)
	}
}

func TestGetNotFound(t *testing.T) {
	s := store.NewGormStore(helpers.SetupTestDB(t))
	ctx := context.Background()

	if _, err := s.GetBlock(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for block, got %v", err)
	}
	if _, err := s.GetVersion(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for version, got %v", err)
	}
	if _, err := s.LatestRequestForVersion(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for request, got %v", err)
	}
	if err := s.IncrementDownloadCount(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for download count, got %v", err)
	}
}

func TestListBlocksFilters(t *testing.T) {
	db := helpers.SetupTestDB(t)
	s := store.NewGormStore(db)
	ctx := context.Background()

	app := helpers.CreateTestApp(t, db, "Storefront")
	helpers.CreateTestBlock(t, db, app, "Hero Banner")
	helpers.CreateTestBlock(t, db, app, "hero_footer")
	helpers.CreateTestBlock(t, db, app, "100% Discount")

	res, err := s.ListBlocks(ctx, store.BlockFilter{AppID: app.ID, Keyword: "HERO"})
	if err != nil {
		t.Fatalf("ListBlocks failed: %v", err)
	}
	if res.Total != 2 || len(res.Items) != 2 {
		t.Errorf("Expected 2 hero blocks, got total=%d items=%d", res.Total, len(res.Items))
	}

	// Wildcards in the keyword are literal.
	res, err = s.ListBlocks(ctx, store.BlockFilter{Keyword: "0%"})
	if err != nil {
		t.Fatalf("ListBlocks failed: %v", err)
	}
	if res.Total != 1 || res.Items[0].Name != "100% Discount" {
		t.Errorf("Expected literal %% match, got %+v", res.Items)
	}
	res, err = s.ListBlocks(ctx, store.BlockFilter{Keyword: "o_f"})
	if err != nil {
		t.Fatalf("ListBlocks failed: %v", err)
	}
	if res.Total != 1 || res.Items[0].Name != "hero_footer" {
		t.Errorf("Expected literal _ match, got %+v", res.Items)
	}

	res, err = s.ListBlocks(ctx, store.BlockFilter{Page: store.Page{Page: 2, PageSize: 2}})
	if err != nil {
		t.Fatalf("ListBlocks failed: %v", err)
	}
	if res.Total != 3 || len(res.Items) != 1 || res.TotalPages != 2 {
		t.Errorf("Unexpected page 2: %+v", res)
	}
}

func TestKeywordFoldsBothSidesAlike(t *testing.T) {
	db := helpers.SetupTestDB(t)
	s := store.NewGormStore(db)
	ctx := context.Background()

	app := helpers.CreateTestApp(t, db, "Éclair Shop")
	helpers.CreateTestBlock(t, db, app, "Éclair Promo")
	helpers.CreateTestBlock(t, db, app, "Seasonal Banner")

	for _, keyword := range []string{"ÉCLAIR", "Éclair PROMO", "pRoMo"} {
		res, err := s.ListBlocks(ctx, store.BlockFilter{Keyword: keyword})
		if err != nil {
			t.Fatalf("ListBlocks failed: %v", err)
		}
		if res.Total != 1 || res.Items[0].Name != "Éclair Promo" {
			t.Errorf("Keyword %q: expected Éclair Promo, got %+v", keyword, res.Items)
		}
	}

	apps, err := s.ListApps(ctx, store.AppFilter{Keyword: "ÉCLAIR SHOP"})
	if err != nil {
		t.Fatalf("ListApps failed: %v", err)
	}
	if apps.Total != 1 || apps.Items[0].ID != app.ID {
		t.Errorf("Expected the app by mixed-case keyword, got %+v", apps.Items)
	}
}

func TestListVersionsRegionAndOrder(t *testing.T) {
	db := helpers.SetupTestDB(t)
	s := store.NewGormStore(db)
	ctx := context.Background()

	app := helpers.CreateTestApp(t, db, "Storefront")
	block := helpers.CreateTestBlock(t, db, app, "Hero")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	helpers.CreateTestVersion(t, db, block, "1.0.0", "cn", base)
	helpers.CreateTestVersion(t, db, block, "1.1.0", registry.AllRegions, base.Add(time.Hour))
	helpers.CreateTestVersion(t, db, block, "1.2.0", "us", base.Add(2*time.Hour))

	all, err := s.ListVersions(ctx, store.VersionFilter{BlockID: block.ID})
	if err != nil {
		t.Fatalf("ListVersions failed: %v", err)
	}
	if len(all) != 3 || all[0].Version != "1.2.0" || all[2].Version != "1.0.0" {
		t.Errorf("Expected newest first across all regions, got %v", versions(all))
	}

	sentinel, err := s.ListVersions(ctx, store.VersionFilter{BlockID: block.ID, Region: registry.AllRegions})
	if err != nil {
		t.Fatalf("ListVersions failed: %v", err)
	}
	if len(sentinel) != 3 {
		t.Errorf("Expected sentinel region to list everything, got %v", versions(sentinel))
	}

	cn, err := s.ListVersions(ctx, store.VersionFilter{BlockID: block.ID, Region: "cn"})
	if err != nil {
		t.Fatalf("ListVersions failed: %v", err)
	}
	if len(cn) != 2 || cn[0].Version != "1.1.0" || cn[1].Version != "1.0.0" {
		t.Errorf("Expected cn plus all-region versions, got %v", versions(cn))
	}

	regions, err := s.BlockRegions(ctx, block.ID)
	if err != nil {
		t.Fatalf("BlockRegions failed: %v", err)
	}
	if len(regions) != 3 {
		t.Errorf("Expected 3 distinct regions, got %v", regions)
	}

	exists, err := s.VersionExists(ctx, block.ID, "cn", "1.0.0")
	if err != nil || !exists {
		t.Errorf("Expected 1.0.0 to exist in cn (err=%v)", err)
	}
	exists, err = s.VersionExists(ctx, block.ID, "us", "1.0.0")
	if err != nil || exists {
		t.Errorf("Expected 1.0.0 to be free in us (err=%v)", err)
	}
}

func TestLiveVersionsForUpdate(t *testing.T) {
	db := helpers.SetupTestDB(t)
	s := store.NewGormStore(db)
	ctx := context.Background()

	app := helpers.CreateTestApp(t, db, "Storefront")
	block := helpers.CreateTestBlock(t, db, app, "Hero")
	now := time.Now().UTC()
	live := helpers.CreateTestVersion(t, db, block, "1.0.0", "cn", now)
	live.StagingStatus = models.EnvStatusPublished
	live.Environments = append(live.Environments, registry.EnvStaging)
	live.StagingPublishedAt = &now
	if err := s.SaveVersion(ctx, live); err != nil {
		t.Fatalf("SaveVersion failed: %v", err)
	}
	helpers.CreateTestVersion(t, db, block, "1.1.0", "cn", now)

	got, err := s.LiveVersionsForUpdate(ctx, block.ID, "cn", registry.EnvStaging)
	if err != nil {
		t.Fatalf("LiveVersionsForUpdate failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != live.ID {
		t.Errorf("Expected only the live version, got %v", versions(got))
	}
	if !got[0].HasEnvironment(registry.EnvStaging) {
		t.Errorf("Expected environments to round-trip, got %v", got[0].Environments)
	}

	got, err = s.LiveVersionsForUpdate(ctx, block.ID, "us", registry.EnvStaging)
	if err != nil || len(got) != 0 {
		t.Errorf("Expected no live versions in us, got %v (err=%v)", versions(got), err)
	}
	if _, err := s.LiveVersionsForUpdate(ctx, block.ID, "cn", "canary"); err == nil {
		t.Error("Expected unknown environment to fail")
	}
}

func TestListApprovalRequestsOrder(t *testing.T) {
	db := helpers.SetupTestDB(t)
	s := store.NewGormStore(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// Inserted out of order on purpose.
	for _, offset := range []int{2, 0, 3, 1} {
		req := &models.ApprovalRequest{
			BlockID:     "b1",
			VersionID:   "v1",
			RequestedBy: "alice",
			RequestedAt: base.Add(time.Duration(offset) * time.Minute),
			Status:      models.ApprovalRejected,
		}
		if err := s.CreateApprovalRequest(ctx, req); err != nil {
			t.Fatalf("CreateApprovalRequest failed: %v", err)
		}
	}

	res, err := s.ListApprovalRequests(ctx, store.ApprovalFilter{})
	if err != nil {
		t.Fatalf("ListApprovalRequests failed: %v", err)
	}
	for i := 1; i < len(res.Items); i++ {
		if res.Items[i-1].RequestedAt.Before(res.Items[i].RequestedAt) {
			t.Fatalf("Expected requestedAt DESC, got %v before %v", res.Items[i-1].RequestedAt, res.Items[i].RequestedAt)
		}
	}

	latest, err := s.LatestRequestForVersion(ctx, "v1")
	if err != nil {
		t.Fatalf("LatestRequestForVersion failed: %v", err)
	}
	if !latest.RequestedAt.Equal(base.Add(3 * time.Minute)) {
		t.Errorf("Expected newest request, got %v", latest.RequestedAt)
	}
	if _, err := s.PendingRequestForVersion(ctx, "v1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected no pending request, got %v", err)
	}
}

func TestTransactionRollback(t *testing.T) {
	db := helpers.SetupTestDB(t)
	s := store.NewGormStore(db)
	ctx := context.Background()

	app := helpers.CreateTestApp(t, db, "Storefront")
	block := helpers.CreateTestBlock(t, db, app, "Hero")

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx store.Store) error {
		b, err := tx.GetBlockForUpdate(ctx, block.ID)
		if err != nil {
			return err
		}
		b.Status = models.BlockStatusPublished
		if err := tx.SaveBlock(ctx, b); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}

	got, err := s.GetBlock(ctx, block.ID)
	if err != nil {
		t.Fatalf("GetBlock failed: %v", err)
	}
	if got.Status != models.BlockStatusDraft {
		t.Errorf("Expected rollback to keep draft, got %s", got.Status)
	}
}

func TestCounters(t *testing.T) {
	db := helpers.SetupTestDB(t)
	s := store.NewGormStore(db)
	ctx := context.Background()

	app := helpers.CreateTestApp(t, db, "Storefront")
	block := helpers.CreateTestBlock(t, db, app, "Hero")

	for i := 0; i < 3; i++ {
		if err := s.IncrementDownloadCount(ctx, block.ID); err != nil {
			t.Fatalf("IncrementDownloadCount failed: %v", err)
		}
	}
	if err := s.IncrementMemberCount(ctx, app.ID, 2); err != nil {
		t.Fatalf("IncrementMemberCount failed: %v", err)
	}
	if err := s.IncrementMemberCount(ctx, app.ID, -1); err != nil {
		t.Fatalf("IncrementMemberCount failed: %v", err)
	}

	b, _ := s.GetBlock(ctx, block.ID)
	a, _ := s.GetApp(ctx, app.ID)
	if b.DownloadCount != 3 {
		t.Errorf("Expected 3 downloads, got %d", b.DownloadCount)
	}
	if a.MemberCount != 1 {
		t.Errorf("Expected 1 member, got %d", a.MemberCount)
	}

	cats, err := s.BlockCategories(ctx)
	if err != nil || len(cats) != 1 || cats[0] != "widgets" {
		t.Errorf("Expected [widgets], got %v (err=%v)", cats, err)
	}
}

func versions(vs []models.BlockVersion) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Region + "@" + v.Version
	}
	return out
}
