package store

import (
	"context"
	"errors"

	"github.com/localnerve/blockrelease/internal/models"
)

// ErrNotFound is returned by every lookup that matches no row.
var ErrNotFound = errors.New("record not found")

// AppFilter narrows ListApps.
type AppFilter struct {
	Keyword string
	Status  string
	Page    Page
}

// BlockFilter narrows ListBlocks. Keyword is a case-insensitive substring of the name.
type BlockFilter struct {
	AppID    string
	Status   string
	Type     string
	Category string
	Keyword  string
	Page     Page
}

// VersionFilter narrows ListVersions. A concrete Region also matches versions
// targeting every region; an empty or sentinel Region matches all.
// Environment, when set, keeps only versions live there.
type VersionFilter struct {
	BlockID     string
	Region      string
	Environment string
}

// ApprovalFilter narrows ListApprovalRequests.
type ApprovalFilter struct {
	Status    string
	BlockID   string
	VersionID string
	Page      Page
}

// Store is the persistence contract for apps, blocks, versions and approval
// requests. Implementations are constructed explicitly; there is no shared
// package state.
type Store interface {
	// Transaction runs fn against a Store bound to a single transaction.
	// Any error returned by fn rolls everything back.
	Transaction(ctx context.Context, fn func(Store) error) error

	GetApp(ctx context.Context, id string) (*models.App, error)
	CreateApp(ctx context.Context, app *models.App) error
	SaveApp(ctx context.Context, app *models.App) error
	ListApps(ctx context.Context, filter AppFilter) (*Paginated[models.App], error)
	CountApps(ctx context.Context) (int64, error)
	IncrementMemberCount(ctx context.Context, appID string, delta int) error

	GetMember(ctx context.Context, appID, memberID string) (*models.AppMember, error)
	FindMember(ctx context.Context, appID, userID string) (*models.AppMember, error)
	CreateMember(ctx context.Context, member *models.AppMember) error
	SaveMember(ctx context.Context, member *models.AppMember) error
	DeleteMember(ctx context.Context, member *models.AppMember) error
	ListMembers(ctx context.Context, appID string, page Page) (*Paginated[models.AppMember], error)

	GetBlock(ctx context.Context, id string) (*models.Block, error)
	GetBlockForUpdate(ctx context.Context, id string) (*models.Block, error)
	CreateBlock(ctx context.Context, block *models.Block) error
	SaveBlock(ctx context.Context, block *models.Block) error
	ListBlocks(ctx context.Context, filter BlockFilter) (*Paginated[models.Block], error)
	CountBlocks(ctx context.Context) (int64, error)
	BlockCategories(ctx context.Context) ([]string, error)
	BlockRegions(ctx context.Context, blockID string) ([]string, error)
	IncrementDownloadCount(ctx context.Context, blockID string) error

	GetVersion(ctx context.Context, id string) (*models.BlockVersion, error)
	GetVersionForUpdate(ctx context.Context, id string) (*models.BlockVersion, error)
	CreateVersion(ctx context.Context, version *models.BlockVersion) error
	SaveVersion(ctx context.Context, version *models.BlockVersion) error
	VersionExists(ctx context.Context, blockID, region, version string) (bool, error)
	ListVersions(ctx context.Context, filter VersionFilter) ([]models.BlockVersion, error)
	// LiveVersionsForUpdate locks and returns every version of blockID live in
	// env. An empty region matches every region.
	LiveVersionsForUpdate(ctx context.Context, blockID, region, env string) ([]models.BlockVersion, error)

	GetApprovalRequest(ctx context.Context, id string) (*models.ApprovalRequest, error)
	GetApprovalRequestForUpdate(ctx context.Context, id string) (*models.ApprovalRequest, error)
	CreateApprovalRequest(ctx context.Context, req *models.ApprovalRequest) error
	SaveApprovalRequest(ctx context.Context, req *models.ApprovalRequest) error
	PendingRequestForVersion(ctx context.Context, versionID string) (*models.ApprovalRequest, error)
	LatestRequestForVersion(ctx context.Context, versionID string) (*models.ApprovalRequest, error)
	ListApprovalRequests(ctx context.Context, filter ApprovalFilter) (*Paginated[models.ApprovalRequest], error)
}
