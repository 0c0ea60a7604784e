// catalog_service.go
//
// Block release service: versioned blocks, approval gating and per-environment publication
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of blockrelease.
// blockrelease is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// blockrelease is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with blockrelease.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/localnerve/blockrelease/internal/models"
	"github.com/localnerve/blockrelease/internal/registry"
	"github.com/localnerve/blockrelease/internal/release"
	"github.com/localnerve/blockrelease/internal/storage"
	"github.com/localnerve/blockrelease/internal/store"
	"github.com/localnerve/blockrelease/internal/types"
	"golang.org/x/mod/semver"
	"gorm.io/datatypes"
)

// PackageStorage persists uploaded package files.
type PackageStorage interface {
	Put(ctx context.Context, blockID, region, version, filename string, r io.Reader) (*storage.Package, error)
	Delete(ctx context.Context, pkg *storage.Package) error
}

// AppInput is the body for creating or updating an app
type AppInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Platform    string `json:"platform"`
	Status      string `json:"status"`
}

// MemberInput is the body for adding or updating a member. Regions accepts a
// single key or a list.
type MemberInput struct {
	UserID    string                 `json:"userId"`
	UserName  string                 `json:"userName"`
	UserEmail string                 `json:"userEmail"`
	Role      string                 `json:"role"`
	Avatar    string                 `json:"avatar"`
	Regions   types.FlexList[string] `json:"regions"`
}

// BlockInput is the body for creating or updating a block
type BlockInput struct {
	AppID       string `json:"appId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Category    string `json:"category"`
}

// PackageUpload is an uploaded package file
type PackageUpload struct {
	Filename string
	Reader   io.Reader
}

// VersionInput describes a new block version
type VersionInput struct {
	BlockID   string         `json:"blockId" form:"blockId"`
	Version   string         `json:"version" form:"version"`
	Type      string         `json:"type" form:"type"`
	Region    string         `json:"region" form:"region"`
	Changelog string         `json:"changelog" form:"changelog"`
	Config    string         `json:"config" form:"config"`
	Package   *PackageUpload `json:"-" form:"-"`
}

// CatalogService manages apps, members, blocks and version creation.
type CatalogService struct {
	store    store.Store
	packages PackageStorage
	now      func() time.Time
}

// NewCatalogService wires the catalog. packages may be nil when uploads are
// not accepted, in which case only config versions can be created.
func NewCatalogService(st store.Store, packages PackageStorage) *CatalogService {
	return &CatalogService{store: st, packages: packages, now: time.Now}
}

func (s *CatalogService) clock() time.Time {
	return s.now().UTC()
}

func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, store.ErrNotFound) {
		return release.NotFoundf(format, args...)
	}
	return err
}

// Apps

func (s *CatalogService) ListApps(ctx context.Context, filter store.AppFilter) (*store.Paginated[models.App], error) {
	return s.store.ListApps(ctx, filter)
}

func (s *CatalogService) CountApps(ctx context.Context) (int64, error) {
	return s.store.CountApps(ctx)
}

func (s *CatalogService) GetApp(ctx context.Context, id string) (*models.App, error) {
	app, err := s.store.GetApp(ctx, id)
	if err != nil {
		return nil, notFound(err, "app %s not found", id)
	}
	return app, nil
}

func validateApp(in *AppInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return release.Validationf("app name is required")
	}
	switch in.Status {
	case "":
		in.Status = models.AppStatusActive
	case models.AppStatusActive, models.AppStatusInactive:
	default:
		return release.Validationf("unknown app status %q", in.Status)
	}
	return nil
}

func (s *CatalogService) CreateApp(ctx context.Context, in AppInput) (*models.App, error) {
	if err := validateApp(&in); err != nil {
		return nil, err
	}
	now := s.clock()
	app := &models.App{
		Name:        in.Name,
		Description: in.Description,
		Icon:        in.Icon,
		Platform:    in.Platform,
		Status:      in.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateApp(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

func (s *CatalogService) UpdateApp(ctx context.Context, id string, in AppInput) (*models.App, error) {
	if err := validateApp(&in); err != nil {
		return nil, err
	}
	app, err := s.GetApp(ctx, id)
	if err != nil {
		return nil, err
	}
	app.Name = in.Name
	app.Description = in.Description
	app.Icon = in.Icon
	app.Platform = in.Platform
	app.Status = in.Status
	app.UpdatedAt = s.clock()
	if err := s.store.SaveApp(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// Members

func (s *CatalogService) ListMembers(ctx context.Context, appID string, page store.Page) (*store.Paginated[models.AppMember], error) {
	if _, err := s.GetApp(ctx, appID); err != nil {
		return nil, err
	}
	return s.store.ListMembers(ctx, appID, page)
}

func (s *CatalogService) GetMembership(ctx context.Context, appID, userID string) (*models.AppMember, error) {
	m, err := s.store.FindMember(ctx, appID, userID)
	if err != nil {
		return nil, notFound(err, "%s is not a member of app %s", userID, appID)
	}
	return m, nil
}

func validateMember(in *MemberInput) error {
	switch in.Role {
	case "":
		in.Role = models.MemberRoleMember
	case models.MemberRoleOwner, models.MemberRoleAdmin, models.MemberRoleMember:
	default:
		return release.Validationf("unknown member role %q", in.Role)
	}
	for _, r := range in.Regions {
		if !registry.IsRegion(r) {
			return release.Validationf("unknown region %q", r)
		}
	}
	return nil
}

func (s *CatalogService) AddMember(ctx context.Context, appID string, in MemberInput) (*models.AppMember, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	in.UserEmail = strings.TrimSpace(in.UserEmail)
	if in.UserID == "" {
		in.UserID = in.UserEmail
	}
	if in.UserID == "" {
		return nil, release.Validationf("userId or userEmail is required")
	}
	if err := validateMember(&in); err != nil {
		return nil, err
	}

	member := &models.AppMember{
		AppID:     appID,
		UserID:    in.UserID,
		UserName:  in.UserName,
		UserEmail: in.UserEmail,
		Role:      in.Role,
		Avatar:    in.Avatar,
		JoinedAt:  s.clock(),
		Regions:   datatypes.JSONSlice[string](registry.NormalizeRegions(in.Regions.Slice())),
	}

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		if _, err := tx.GetApp(ctx, appID); err != nil {
			return notFound(err, "app %s not found", appID)
		}
		if _, err := tx.FindMember(ctx, appID, in.UserID); err == nil {
			return release.Conflictf("%s is already a member of app %s", in.UserID, appID)
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err := tx.CreateMember(ctx, member); err != nil {
			return err
		}
		return tx.IncrementMemberCount(ctx, appID, 1)
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (s *CatalogService) UpdateMember(ctx context.Context, appID, memberID string, in MemberInput) (*models.AppMember, error) {
	if err := validateMember(&in); err != nil {
		return nil, err
	}
	member, err := s.store.GetMember(ctx, appID, memberID)
	if err != nil {
		return nil, notFound(err, "member %s not found", memberID)
	}
	member.Role = in.Role
	if in.Regions != nil {
		member.Regions = datatypes.JSONSlice[string](registry.NormalizeRegions(in.Regions.Slice()))
	}
	if in.UserName != "" {
		member.UserName = in.UserName
	}
	if in.Avatar != "" {
		member.Avatar = in.Avatar
	}
	if err := s.store.SaveMember(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *CatalogService) RemoveMember(ctx context.Context, appID, memberID string) error {
	return s.store.Transaction(ctx, func(tx store.Store) error {
		member, err := tx.GetMember(ctx, appID, memberID)
		if err != nil {
			return notFound(err, "member %s not found", memberID)
		}
		if err := tx.DeleteMember(ctx, member); err != nil {
			return err
		}
		return tx.IncrementMemberCount(ctx, appID, -1)
	})
}

// Blocks

func (s *CatalogService) ListBlocks(ctx context.Context, filter store.BlockFilter) (*store.Paginated[models.Block], error) {
	return s.store.ListBlocks(ctx, filter)
}

func (s *CatalogService) CountBlocks(ctx context.Context) (int64, error) {
	return s.store.CountBlocks(ctx)
}

func (s *CatalogService) BlockCategories(ctx context.Context) ([]string, error) {
	return s.store.BlockCategories(ctx)
}

func (s *CatalogService) GetBlock(ctx context.Context, id string) (*models.Block, error) {
	block, err := s.store.GetBlock(ctx, id)
	if err != nil {
		return nil, notFound(err, "block %s not found", id)
	}
	return block, nil
}

func (s *CatalogService) BlockRegions(ctx context.Context, id string) ([]string, error) {
	if _, err := s.GetBlock(ctx, id); err != nil {
		return nil, err
	}
	return s.store.BlockRegions(ctx, id)
}

func validateBlock(in *BlockInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return release.Validationf("block name is required")
	}
	switch in.Type {
	case "":
		in.Type = models.BlockTypeComponent
	case models.BlockTypeComponent, models.BlockTypePage, models.BlockTypeModule:
	default:
		return release.Validationf("unknown block type %q", in.Type)
	}
	return nil
}

func (s *CatalogService) CreateBlock(ctx context.Context, actor string, in BlockInput) (*models.Block, error) {
	if err := validateBlock(&in); err != nil {
		return nil, err
	}
	app, err := s.GetApp(ctx, in.AppID)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	block := &models.Block{
		Name:        in.Name,
		Description: in.Description,
		AppID:       app.ID,
		AppName:     app.Name,
		Type:        in.Type,
		Category:    strings.TrimSpace(in.Category),
		Status:      models.BlockStatusDraft,
		CreatedBy:   actor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateBlock(ctx, block); err != nil {
		return nil, err
	}
	log.Printf("catalog: %s created block %s (%s)", actor, block.Name, block.ID)
	return block, nil
}

// UpdateBlock edits descriptive fields only; status and pointers belong to
// the release service.
func (s *CatalogService) UpdateBlock(ctx context.Context, id string, in BlockInput) (*models.Block, error) {
	if err := validateBlock(&in); err != nil {
		return nil, err
	}
	var block *models.Block
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		b, err := tx.GetBlockForUpdate(ctx, id)
		if err != nil {
			return notFound(err, "block %s not found", id)
		}
		b.Name = in.Name
		b.Description = in.Description
		b.Type = in.Type
		b.Category = strings.TrimSpace(in.Category)
		b.UpdatedAt = s.clock()
		block = b
		return tx.SaveBlock(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	return block, nil
}

// ArchiveBlock retires a block. Blocks are never deleted.
func (s *CatalogService) ArchiveBlock(ctx context.Context, actor, id string) (*models.Block, error) {
	var block *models.Block
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		b, err := tx.GetBlockForUpdate(ctx, id)
		if err != nil {
			return notFound(err, "block %s not found", id)
		}
		if b.StagingVersion != nil || b.ProductionVersion != nil {
			return release.InvalidStatef("block %s still has live versions; unpublish them first", b.Name)
		}
		b.Status = models.BlockStatusArchived
		b.UpdatedAt = s.clock()
		block = b
		return tx.SaveBlock(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("catalog: %s archived block %s", actor, block.ID)
	return block, nil
}

func (s *CatalogService) RecordDownload(ctx context.Context, id string) error {
	if err := s.store.IncrementDownloadCount(ctx, id); err != nil {
		return notFound(err, "block %s not found", id)
	}
	return nil
}

// Versions

// NormalizeSemver validates a semantic version given with or without the
// leading "v" and returns its stored form, MAJOR.MINOR.PATCH[-PRERELEASE]
// with no "v". Build metadata is refused since it does not take part in
// ordering and would let two equal versions coexist.
func NormalizeSemver(v string) (string, error) {
	v = strings.TrimSpace(v)
	canonical := "v" + strings.TrimPrefix(v, "v")
	if !semver.IsValid(canonical) || semver.Canonical(canonical) != canonical {
		if semver.IsValid(canonical) && semver.Build(canonical) != "" {
			return "", release.Validationf("version %q carries build metadata, which is not supported", v)
		}
		return "", release.Validationf("version %q is not a semantic version (expected MAJOR.MINOR.PATCH)", v)
	}
	return strings.TrimPrefix(canonical, "v"), nil
}

func newer(candidate string, current *string) bool {
	if current == nil {
		return true
	}
	return semver.Compare("v"+candidate, "v"+strings.TrimPrefix(*current, "v")) > 0
}

func (s *CatalogService) GetVersion(ctx context.Context, id string) (*models.BlockVersion, error) {
	v, err := s.store.GetVersion(ctx, id)
	if err != nil {
		return nil, notFound(err, "version %s not found", id)
	}
	return v, nil
}

// CreateVersion validates and stores a new draft version, uploading its
// package first when one is supplied.
func (s *CatalogService) CreateVersion(ctx context.Context, actor string, in VersionInput) (*models.BlockVersion, error) {
	version, err := NormalizeSemver(in.Version)
	if err != nil {
		return nil, err
	}
	switch in.Type {
	case "":
		in.Type = models.VersionTypePackage
	case models.VersionTypePackage, models.VersionTypeConfig:
	default:
		return nil, release.Validationf("unknown version type %q", in.Type)
	}
	if in.Region == "" {
		in.Region = registry.DefaultRegion
	}
	if !registry.IsRegion(in.Region) {
		return nil, release.Validationf("unknown region %q", in.Region)
	}
	config, err := models.ParseJSON(strings.TrimSpace(in.Config))
	if err != nil {
		return nil, release.Validationf("config must be valid JSON")
	}
	if in.Type == models.VersionTypePackage && in.Package == nil {
		return nil, release.Validationf("a package file is required for package versions")
	}
	if in.Package != nil && s.packages == nil {
		return nil, release.Validationf("package uploads are not enabled")
	}

	block, err := s.GetBlock(ctx, in.BlockID)
	if err != nil {
		return nil, err
	}
	exists, err := s.store.VersionExists(ctx, block.ID, in.Region, version)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, release.Conflictf("version %s already exists for region %s", version, registry.RegionLabel(in.Region))
	}

	now := s.clock()
	v := &models.BlockVersion{
		BlockID:          block.ID,
		Version:          version,
		Type:             in.Type,
		Region:           in.Region,
		Changelog:        in.Changelog,
		Config:           config,
		CreatedBy:        actor,
		CreatedAt:        now,
		StagingStatus:    models.EnvStatusUnpublished,
		ProductionStatus: models.EnvStatusUnpublished,
		Environments:     datatypes.JSONSlice[string]{},
		Status:           models.VersionStatusDraft,
	}

	var pkg *storage.Package
	if in.Package != nil {
		if pkg, err = s.packages.Put(ctx, block.ID, in.Region, version, in.Package.Filename, in.Package.Reader); err != nil {
			if errors.Is(err, storage.ErrInvalidName) {
				return nil, release.Validationf("invalid package file name %q", in.Package.Filename)
			}
			return nil, err
		}
		v.PackageURL = &pkg.URL
		v.PackageSize = &pkg.Size
	}

	err = s.store.Transaction(ctx, func(tx store.Store) error {
		if exists, err := tx.VersionExists(ctx, block.ID, in.Region, version); err != nil {
			return err
		} else if exists {
			return release.Conflictf("version %s already exists for region %s", version, registry.RegionLabel(in.Region))
		}
		if err := tx.CreateVersion(ctx, v); err != nil {
			return err
		}
		b, err := tx.GetBlockForUpdate(ctx, block.ID)
		if err != nil {
			return notFound(err, "block %s not found", block.ID)
		}
		if newer(version, b.LatestVersion) {
			b.LatestVersion = &v.Version
		}
		b.UpdatedAt = now
		return tx.SaveBlock(ctx, b)
	})
	if err != nil {
		if pkg != nil {
			if derr := s.packages.Delete(ctx, pkg); derr != nil {
				log.Printf("catalog: failed to remove orphaned package %s: %v", pkg.Location, derr)
			}
		}
		return nil, err
	}

	log.Printf("catalog: %s created %s@%s (%s, %s)", actor, block.Name, version, v.Type, v.Region)
	return v, nil
}
