// data.go
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

package helpers

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/localnerve/blockrelease/internal/database"
	"github.com/localnerve/blockrelease/internal/models"
	"github.com/localnerve/blockrelease/internal/registry"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a private in-memory SQLite database and migrates it.
// A single connection keeps every query on the same in-memory instance.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get underlying SQL DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// CreateTestApp inserts an active app
func CreateTestApp(t *testing.T, db *gorm.DB, name string) *models.App {
	t.Helper()
	now := time.Now().UTC()
	app := &models.App{
		Name:      name,
		Platform:  "web",
		Status:    models.AppStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(app).Error; err != nil {
		t.Fatalf("Failed to create app: %v", err)
	}
	return app
}

// CreateTestBlock inserts a draft block owned by app
func CreateTestBlock(t *testing.T, db *gorm.DB, app *models.App, name string) *models.Block {
	t.Helper()
	now := time.Now().UTC()
	block := &models.Block{
		Name:      name,
		AppID:     app.ID,
		AppName:   app.Name,
		Type:      models.BlockTypeComponent,
		Category:  "widgets",
		Status:    models.BlockStatusDraft,
		CreatedBy: "tester",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(block).Error; err != nil {
		t.Fatalf("Failed to create block: %v", err)
	}
	return block
}

// CreateTestVersion inserts a draft config version for block in region
func CreateTestVersion(t *testing.T, db *gorm.DB, block *models.Block, version, region string, createdAt time.Time) *models.BlockVersion {
	t.Helper()
	if region == "" {
		region = registry.DefaultRegion
	}
	v := &models.BlockVersion{
		BlockID:          block.ID,
		Version:          version,
		Type:             models.VersionTypeConfig,
		Region:           region,
		Config:           models.EmptyObject(),
		CreatedBy:        "tester",
		CreatedAt:        createdAt.UTC(),
		StagingStatus:    models.EnvStatusUnpublished,
		ProductionStatus: models.EnvStatusUnpublished,
		Status:           models.VersionStatusDraft,
	}
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("Failed to create version: %v", err)
	}
	return v
}
