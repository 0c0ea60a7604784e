package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/localnerve/blockrelease/internal/models"
	"github.com/localnerve/blockrelease/internal/registry"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/hints"
)

// GormStore implements Store over any GORM dialect.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB exposes the underlying connection for migrations and health checks.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func (s *GormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// quiet is used for reads so query logging stays focused on writes.
func (s *GormStore) quiet(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Session(&gorm.Session{Logger: s.db.Logger.LogMode(logger.Silent)})
}

// locked reads rows with SELECT ... FOR UPDATE. SQLite serializes writers and
// has no row locks.
func (s *GormStore) locked(ctx context.Context) *gorm.DB {
	q := s.quiet(ctx)
	if s.db.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

// useIndex adds a MySQL index hint; other dialects ignore it.
func (s *GormStore) useIndex(q *gorm.DB, index string) *gorm.DB {
	if s.db.Dialector.Name() == "mysql" {
		return q.Clauses(hints.UseIndex(index))
	}
	return q
}

func first[T any](q *gorm.DB, what string, conds ...interface{}) (*T, error) {
	var out T
	if err := q.First(&out, conds...).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get %s: %w", what, err)
	}
	return &out, nil
}

func paginate[T any](q *gorm.DB, page Page, order string) (*Paginated[T], error) {
	page = page.Normalize()
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []T
	if err := q.Order(order).Offset(page.Offset()).Limit(page.PageSize).Find(&items).Error; err != nil {
		return nil, err
	}
	return NewPaginated(items, total, page), nil
}

// escapeLike escapes LIKE wildcards using '!' as the escape character.
func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

// keywordPattern is matched with LOWER on both sides, so the pattern and the
// column always fold the same way. On SQLite LOWER folds ASCII only.
func keywordPattern(keyword string) string {
	return "%" + escapeLike(strings.TrimSpace(keyword)) + "%"
}

// statusColumn maps an environment key to its status column.
func statusColumn(env string) (string, error) {
	switch env {
	case registry.EnvStaging:
		return "staging_status", nil
	case registry.EnvProduction:
		return "production_status", nil
	}
	return "", fmt.Errorf("store: unknown environment %q", env)
}

// Apps

func (s *GormStore) GetApp(ctx context.Context, id string) (*models.App, error) {
	return first[models.App](s.quiet(ctx), "app", "id = ?", id)
}

func (s *GormStore) CreateApp(ctx context.Context, app *models.App) error {
	if err := s.conn(ctx).Create(app).Error; err != nil {
		return fmt.Errorf("store: create app: %w", err)
	}
	return nil
}

func (s *GormStore) SaveApp(ctx context.Context, app *models.App) error {
	if err := s.conn(ctx).Save(app).Error; err != nil {
		return fmt.Errorf("store: save app: %w", err)
	}
	return nil
}

func (s *GormStore) ListApps(ctx context.Context, filter AppFilter) (*Paginated[models.App], error) {
	q := s.quiet(ctx).Model(&models.App{})
	if filter.Keyword != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?) ESCAPE '!'", keywordPattern(filter.Keyword))
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	out, err := paginate[models.App](q, filter.Page, "created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("store: list apps: %w", err)
	}
	return out, nil
}

func (s *GormStore) CountApps(ctx context.Context) (int64, error) {
	var n int64
	if err := s.quiet(ctx).Model(&models.App{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("store: count apps: %w", err)
	}
	return n, nil
}

func (s *GormStore) IncrementMemberCount(ctx context.Context, appID string, delta int) error {
	res := s.conn(ctx).Model(&models.App{}).Where("id = ?", appID).
		UpdateColumn("member_count", gorm.Expr("member_count + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("store: member count: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Members

func (s *GormStore) GetMember(ctx context.Context, appID, memberID string) (*models.AppMember, error) {
	return first[models.AppMember](s.quiet(ctx), "member", "app_id = ? AND id = ?", appID, memberID)
}

func (s *GormStore) FindMember(ctx context.Context, appID, userID string) (*models.AppMember, error) {
	return first[models.AppMember](s.quiet(ctx), "member", "app_id = ? AND user_id = ?", appID, userID)
}

func (s *GormStore) CreateMember(ctx context.Context, member *models.AppMember) error {
	if err := s.conn(ctx).Create(member).Error; err != nil {
		return fmt.Errorf("store: create member: %w", err)
	}
	return nil
}

func (s *GormStore) SaveMember(ctx context.Context, member *models.AppMember) error {
	if err := s.conn(ctx).Save(member).Error; err != nil {
		return fmt.Errorf("store: save member: %w", err)
	}
	return nil
}

func (s *GormStore) DeleteMember(ctx context.Context, member *models.AppMember) error {
	res := s.conn(ctx).Delete(member)
	if res.Error != nil {
		return fmt.Errorf("store: delete member: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListMembers(ctx context.Context, appID string, page Page) (*Paginated[models.AppMember], error) {
	q := s.quiet(ctx).Model(&models.AppMember{}).Where("app_id = ?", appID)
	q = s.useIndex(q, "idx_app_members_app_user")
	out, err := paginate[models.AppMember](q, page, "joined_at ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("store: list members: %w", err)
	}
	return out, nil
}

// Blocks

func (s *GormStore) GetBlock(ctx context.Context, id string) (*models.Block, error) {
	return first[models.Block](s.quiet(ctx), "block", "id = ?", id)
}

func (s *GormStore) GetBlockForUpdate(ctx context.Context, id string) (*models.Block, error) {
	return first[models.Block](s.locked(ctx), "block", "id = ?", id)
}

func (s *GormStore) CreateBlock(ctx context.Context, block *models.Block) error {
	if err := s.conn(ctx).Create(block).Error; err != nil {
		return fmt.Errorf("store: create block: %w", err)
	}
	return nil
}

func (s *GormStore) SaveBlock(ctx context.Context, block *models.Block) error {
	if err := s.conn(ctx).Save(block).Error; err != nil {
		return fmt.Errorf("store: save block: %w", err)
	}
	return nil
}

func (s *GormStore) ListBlocks(ctx context.Context, filter BlockFilter) (*Paginated[models.Block], error) {
	q := s.quiet(ctx).Model(&models.Block{})
	if filter.AppID != "" {
		q = s.useIndex(q, "idx_blocks_app_status").Where("app_id = ?", filter.AppID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Keyword != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?) ESCAPE '!'", keywordPattern(filter.Keyword))
	}
	out, err := paginate[models.Block](q, filter.Page, "updated_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("store: list blocks: %w", err)
	}
	return out, nil
}

func (s *GormStore) CountBlocks(ctx context.Context) (int64, error) {
	var n int64
	if err := s.quiet(ctx).Model(&models.Block{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("store: count blocks: %w", err)
	}
	return n, nil
}

func (s *GormStore) BlockCategories(ctx context.Context) ([]string, error) {
	var out []string
	if err := s.quiet(ctx).Model(&models.Block{}).
		Where("category <> ''").
		Distinct().
		Order("category").
		Pluck("category", &out).Error; err != nil {
		return nil, fmt.Errorf("store: block categories: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (s *GormStore) BlockRegions(ctx context.Context, blockID string) ([]string, error) {
	var out []string
	q := s.useIndex(s.quiet(ctx).Model(&models.BlockVersion{}), "idx_versions_block_region")
	if err := q.Where("block_id = ?", blockID).
		Distinct().
		Pluck("region", &out).Error; err != nil {
		return nil, fmt.Errorf("store: block regions: %w", err)
	}
	sort.Strings(out)
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (s *GormStore) IncrementDownloadCount(ctx context.Context, blockID string) error {
	res := s.conn(ctx).Model(&models.Block{}).Where("id = ?", blockID).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("store: download count: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Versions

func (s *GormStore) GetVersion(ctx context.Context, id string) (*models.BlockVersion, error) {
	return first[models.BlockVersion](s.quiet(ctx), "version", "id = ?", id)
}

func (s *GormStore) GetVersionForUpdate(ctx context.Context, id string) (*models.BlockVersion, error) {
	return first[models.BlockVersion](s.locked(ctx), "version", "id = ?", id)
}

func (s *GormStore) CreateVersion(ctx context.Context, version *models.BlockVersion) error {
	if err := s.conn(ctx).Create(version).Error; err != nil {
		return fmt.Errorf("store: create version: %w", err)
	}
	return nil
}

func (s *GormStore) SaveVersion(ctx context.Context, version *models.BlockVersion) error {
	if err := s.conn(ctx).Save(version).Error; err != nil {
		return fmt.Errorf("store: save version: %w", err)
	}
	return nil
}

func (s *GormStore) VersionExists(ctx context.Context, blockID, region, version string) (bool, error) {
	var n int64
	if err := s.quiet(ctx).Model(&models.BlockVersion{}).
		Where("block_id = ? AND region = ? AND version = ?", blockID, region, version).
		Count(&n).Error; err != nil {
		return false, fmt.Errorf("store: version exists: %w", err)
	}
	return n > 0, nil
}

func (s *GormStore) ListVersions(ctx context.Context, filter VersionFilter) ([]models.BlockVersion, error) {
	q := s.useIndex(s.quiet(ctx).Model(&models.BlockVersion{}), "idx_versions_block_region").
		Where("block_id = ?", filter.BlockID)
	if filter.Region != "" && filter.Region != registry.AllRegions {
		q = q.Where("region IN ?", []string{filter.Region, registry.AllRegions})
	}
	if filter.Environment != "" {
		col, err := statusColumn(filter.Environment)
		if err != nil {
			return nil, err
		}
		q = q.Where(col+" = ?", models.EnvStatusPublished)
	}

	var out []models.BlockVersion
	if err := q.Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("store: list versions: %w", err)
	}
	if out == nil {
		out = []models.BlockVersion{}
	}
	return out, nil
}

func (s *GormStore) LiveVersionsForUpdate(ctx context.Context, blockID, region, env string) ([]models.BlockVersion, error) {
	col, err := statusColumn(env)
	if err != nil {
		return nil, err
	}
	q := s.locked(ctx).Where("block_id = ?", blockID).Where(col+" = ?", models.EnvStatusPublished)
	if region != "" {
		q = q.Where("region = ?", region)
	}

	var out []models.BlockVersion
	if err := q.Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("store: live versions: %w", err)
	}
	return out, nil
}

// Approval requests

func (s *GormStore) GetApprovalRequest(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	return first[models.ApprovalRequest](s.quiet(ctx), "approval request", "id = ?", id)
}

func (s *GormStore) GetApprovalRequestForUpdate(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	return first[models.ApprovalRequest](s.locked(ctx), "approval request", "id = ?", id)
}

func (s *GormStore) CreateApprovalRequest(ctx context.Context, req *models.ApprovalRequest) error {
	if err := s.conn(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("store: create approval request: %w", err)
	}
	return nil
}

func (s *GormStore) SaveApprovalRequest(ctx context.Context, req *models.ApprovalRequest) error {
	if err := s.conn(ctx).Save(req).Error; err != nil {
		return fmt.Errorf("store: save approval request: %w", err)
	}
	return nil
}

func (s *GormStore) PendingRequestForVersion(ctx context.Context, versionID string) (*models.ApprovalRequest, error) {
	q := s.useIndex(s.locked(ctx), "idx_approvals_version_status").
		Where("version_id = ? AND status = ?", versionID, models.ApprovalPending).
		Order("requested_at DESC, id DESC")
	return first[models.ApprovalRequest](q, "pending approval request")
}

func (s *GormStore) LatestRequestForVersion(ctx context.Context, versionID string) (*models.ApprovalRequest, error) {
	q := s.useIndex(s.quiet(ctx), "idx_approvals_version_status").
		Where("version_id = ?", versionID).
		Order("requested_at DESC, id DESC")
	return first[models.ApprovalRequest](q, "approval request")
}

func (s *GormStore) ListApprovalRequests(ctx context.Context, filter ApprovalFilter) (*Paginated[models.ApprovalRequest], error) {
	q := s.quiet(ctx).Model(&models.ApprovalRequest{})
	if filter.Status != "" {
		q = s.useIndex(q, "idx_approvals_status_requested").Where("status = ?", filter.Status)
	}
	if filter.BlockID != "" {
		q = q.Where("block_id = ?", filter.BlockID)
	}
	if filter.VersionID != "" {
		q = q.Where("version_id = ?", filter.VersionID)
	}
	out, err := paginate[models.ApprovalRequest](q, filter.Page, "requested_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("store: list approval requests: %w", err)
	}
	return out, nil
}

var _ Store = (*GormStore)(nil)
