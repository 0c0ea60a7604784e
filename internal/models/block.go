package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Block statuses
const (
	BlockStatusDraft     = "draft"
	BlockStatusPending   = "pending"
	BlockStatusApproved  = "approved"
	BlockStatusPublished = "published"
	BlockStatusArchived  = "archived"
)

// Block types
const (
	BlockTypeComponent = "component"
	BlockTypePage      = "page"
	BlockTypeModule    = "module"
)

// Version content types
const (
	VersionTypePackage = "package"
	VersionTypeConfig  = "config"
)

// Per-environment statuses. Staging only ever uses Unpublished and Published.
const (
	EnvStatusUnpublished = "unpublished"
	EnvStatusPending     = "pending"
	EnvStatusApproved    = "approved"
	EnvStatusPublished   = "published"
	EnvStatusRejected    = "rejected"
)

// Legacy single-axis version statuses, derived from the per-environment fields.
const (
	VersionStatusDraft     = "draft"
	VersionStatusPending   = "pending"
	VersionStatusApproved  = "approved"
	VersionStatusPublished = "published"
)

// Block is a named release unit belonging to one App. StagingVersion and
// ProductionVersion are projections of the block_versions table and are only
// written by the release state machine.
type Block struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	Name              string    `gorm:"size:255;not null" json:"name"`
	Description       string    `gorm:"type:text" json:"description"`
	AppID             string    `gorm:"size:36;not null;index:idx_blocks_app_status,priority:1" json:"appId"`
	AppName           string    `gorm:"size:255" json:"appName"`
	Type              string    `gorm:"size:16;not null" json:"type"`
	Category          string    `gorm:"size:128;index" json:"category"`
	Status            string    `gorm:"size:16;not null;default:draft;index:idx_blocks_app_status,priority:2" json:"status"`
	LatestVersion     *string   `gorm:"size:64" json:"latestVersion,omitempty"`
	DownloadCount     int64     `gorm:"not null;default:0" json:"downloadCount"`
	CreatedBy         string    `gorm:"size:255" json:"createdBy"`
	CreatedAt         time.Time `gorm:"autoCreateTime:false" json:"createdAt"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime:false" json:"updatedAt"`
	StagingVersion    *string   `gorm:"size:64" json:"stagingVersion,omitempty"`
	ProductionVersion *string   `gorm:"size:64" json:"productionVersion,omitempty"`
}

// BlockVersion is one release candidate of a block. Its content is fixed at
// creation; only the release fields change afterwards.
type BlockVersion struct {
	ID          string  `gorm:"primaryKey;size:36" json:"id"`
	BlockID     string  `gorm:"size:36;not null;index:idx_versions_block_region,priority:1" json:"blockId"`
	Version     string  `gorm:"size:64;not null" json:"version"`
	Type        string  `gorm:"size:16;not null" json:"type"`
	Region      string  `gorm:"size:16;not null;index:idx_versions_block_region,priority:2" json:"region"`
	Changelog   string  `gorm:"type:text" json:"changelog"`
	Config      JSON    `json:"config"`
	PackageURL  *string `gorm:"size:1024" json:"packageUrl,omitempty"`
	PackageSize *int64  `json:"packageSize,omitempty"`

	CreatedBy  string     `gorm:"size:255" json:"createdBy"`
	CreatedAt  time.Time  `gorm:"autoCreateTime:false" json:"createdAt"`
	ApprovedBy *string    `gorm:"size:255" json:"approvedBy,omitempty"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`

	StagingStatus         string     `gorm:"size:16;not null;default:unpublished" json:"stagingStatus"`
	ProductionStatus      string     `gorm:"size:16;not null;default:unpublished" json:"productionStatus"`
	StagingPublishedAt    *time.Time `json:"stagingPublishedAt,omitempty"`
	ProductionPublishedAt *time.Time `json:"productionPublishedAt,omitempty"`

	Environments datatypes.JSONSlice[string] `json:"environments"`
	PublishedAt  *time.Time                  `json:"publishedAt,omitempty"`
	Status       string                      `gorm:"size:16;not null;default:draft" json:"status"`
}

func (Block) TableName() string {
	return "blocks"
}

func (BlockVersion) TableName() string {
	return "block_versions"
}

func (b *Block) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

func (v *BlockVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.Environments == nil {
		v.Environments = datatypes.JSONSlice[string]{}
	}
	return nil
}

func (v *BlockVersion) AfterFind(tx *gorm.DB) error {
	if v.Environments == nil {
		v.Environments = datatypes.JSONSlice[string]{}
	}
	return nil
}

// HasEnvironment reports whether the version is live in env.
func (v *BlockVersion) HasEnvironment(env string) bool {
	for _, e := range v.Environments {
		if e == env {
			return true
		}
	}
	return false
}
