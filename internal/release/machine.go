// machine.go
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

package release

import (
	"strings"
	"time"

	"github.com/localnerve/blockrelease/internal/models"
	"github.com/localnerve/blockrelease/internal/registry"
	"gorm.io/datatypes"
)

// Transition is the outcome of a decision: the new snapshots to persist.
// Block and Request are nil when the command leaves them untouched. A Request
// with an empty ID is new.
type Transition struct {
	Version   *models.BlockVersion
	Block     *models.Block
	Request   *models.ApprovalRequest
	Displaced []*models.BlockVersion
}

// DecideSubmit opens a production approval request for version.
func DecideSubmit(block *models.Block, version *models.BlockVersion, pending *models.ApprovalRequest, actor string, now time.Time) (Transition, error) {
	if err := checkActive(block); err != nil {
		return Transition{}, err
	}
	if pending != nil {
		return Transition{}, Conflictf("version %s already has a pending approval request", version.Version)
	}
	if version.ProductionStatus == models.EnvStatusPublished {
		return Transition{}, InvalidStatef("version %s is already published to %s",
			version.Version, registry.EnvironmentLabel(registry.EnvProduction))
	}

	v := cloneVersion(version)
	v.ProductionStatus = models.EnvStatusPending
	v.Status = deriveStatus(v)

	b := cloneBlock(block)
	b.Status = models.BlockStatusPending
	b.UpdatedAt = now

	req := &models.ApprovalRequest{
		BlockID:     block.ID,
		BlockName:   block.Name,
		VersionID:   version.ID,
		Version:     version.Version,
		Environment: registry.EnvProduction,
		RequestedBy: actor,
		RequestedAt: now,
		Status:      models.ApprovalPending,
	}

	return Transition{Version: v, Block: b, Request: req}, nil
}

// DecideApprove terminates a pending request as approved.
func DecideApprove(req *models.ApprovalRequest, version *models.BlockVersion, block *models.Block, actor, comment string, now time.Time) (Transition, error) {
	if req.Status != models.ApprovalPending {
		return Transition{}, InvalidStatef("approval request %s is already %s", req.ID, req.Status)
	}
	if err := checkActive(block); err != nil {
		return Transition{}, err
	}

	r := review(req, models.ApprovalApproved, actor, comment, now)

	v := cloneVersion(version)
	v.ProductionStatus = models.EnvStatusApproved
	v.ApprovedBy = &actor
	v.ApprovedAt = &now
	v.Status = deriveStatus(v)

	b := cloneBlock(block)
	b.Status = models.BlockStatusApproved
	b.UpdatedAt = now

	return Transition{Version: v, Block: b, Request: r}, nil
}

// DecideReject terminates a pending request as rejected. The block is not changed.
func DecideReject(req *models.ApprovalRequest, version *models.BlockVersion, actor, comment string, now time.Time) (Transition, error) {
	if strings.TrimSpace(comment) == "" {
		return Transition{}, Validationf("a comment is required to reject an approval request")
	}
	if req.Status != models.ApprovalPending {
		return Transition{}, InvalidStatef("approval request %s is already %s", req.ID, req.Status)
	}

	r := review(req, models.ApprovalRejected, actor, comment, now)

	v := cloneVersion(version)
	v.ProductionStatus = models.EnvStatusRejected
	v.Status = deriveStatus(v)

	return Transition{Version: v, Request: r}, nil
}

// DecidePublish makes version the live one for env. live holds the versions
// of the same block currently published to env; those sharing the version's
// region are displaced. An empty region means the version's own.
func DecidePublish(block *models.Block, version *models.BlockVersion, env, region string, live []models.BlockVersion, now time.Time) (Transition, error) {
	cfg, ok := registry.Environment(env)
	if !ok {
		return Transition{}, Validationf("unknown environment %q", env)
	}
	if err := checkActive(block); err != nil {
		return Transition{}, err
	}
	if region != "" && version.Region != registry.AllRegions && region != version.Region {
		return Transition{}, InvalidStatef("version %s targets region %s, not %s",
			version.Version, version.Region, region)
	}
	if env == registry.EnvProduction &&
		version.ProductionStatus != models.EnvStatusApproved &&
		version.ProductionStatus != models.EnvStatusPublished {
		return Transition{}, InvalidStatef("version %s must be approved before publishing to %s", version.Version, cfg.Label)
	}
	if version.HasEnvironment(env) {
		return Transition{}, Conflictf("version %s is already published to %s", version.Version, cfg.Label)
	}

	v := cloneVersion(version)
	v.Environments = append(v.Environments, env)
	setEnvironment(v, env, models.EnvStatusPublished, &now)
	if v.PublishedAt == nil {
		v.PublishedAt = &now
	}
	v.Status = deriveStatus(v)

	var displaced []*models.BlockVersion
	for i := range live {
		other := &live[i]
		if other.ID == v.ID || other.Region != v.Region || !other.HasEnvironment(env) {
			continue
		}
		d := cloneVersion(other)
		retract(d, env)
		displaced = append(displaced, d)
	}

	b := cloneBlock(block)
	pointer := v.Version
	setPointer(b, env, &pointer)
	b.Status = models.BlockStatusPublished
	b.UpdatedAt = now

	return Transition{Version: v, Block: b, Displaced: displaced}, nil
}

// DecideUnpublish retracts version from env. live holds every version of the
// block currently published to env in any region; the block pointer falls
// back to the most recently published of the others.
func DecideUnpublish(block *models.Block, version *models.BlockVersion, env string, live []models.BlockVersion, now time.Time) (Transition, error) {
	cfg, ok := registry.Environment(env)
	if !ok {
		return Transition{}, Validationf("unknown environment %q", env)
	}
	if !version.HasEnvironment(env) {
		return Transition{}, Conflictf("version %s is not published to %s", version.Version, cfg.Label)
	}

	v := cloneVersion(version)
	retract(v, env)

	var next *models.BlockVersion
	for i := range live {
		other := &live[i]
		if other.ID == v.ID || !other.HasEnvironment(env) {
			continue
		}
		if next == nil || publishedAt(other, env).After(publishedAt(next, env)) {
			next = other
		}
	}

	b := cloneBlock(block)
	if next != nil {
		pointer := next.Version
		setPointer(b, env, &pointer)
	} else {
		setPointer(b, env, nil)
	}
	b.UpdatedAt = now

	return Transition{Version: v, Block: b}, nil
}

// checkActive refuses commands that would move an archived block out of archived.
func checkActive(block *models.Block) error {
	if block.Status == models.BlockStatusArchived {
		return InvalidStatef("block %s is archived", block.Name)
	}
	return nil
}

// deriveStatus projects the per-environment state onto the legacy status. It
// reads only environment membership and the production status, so the two
// never disagree; PublishedAt is history and plays no part.
func deriveStatus(v *models.BlockVersion) string {
	switch {
	case len(v.Environments) > 0:
		return models.VersionStatusPublished
	case v.ProductionStatus == models.EnvStatusPending:
		return models.VersionStatusPending
	case v.ProductionStatus == models.EnvStatusApproved:
		return models.VersionStatusApproved
	}
	return models.VersionStatusDraft
}

func retract(v *models.BlockVersion, env string) {
	envs := make(datatypes.JSONSlice[string], 0, len(v.Environments))
	for _, e := range v.Environments {
		if e != env {
			envs = append(envs, e)
		}
	}
	v.Environments = envs

	switch env {
	case registry.EnvStaging:
		setEnvironment(v, env, models.EnvStatusUnpublished, nil)
	case registry.EnvProduction:
		setEnvironment(v, env, models.EnvStatusApproved, nil)
	}
	v.Status = deriveStatus(v)
}

func setEnvironment(v *models.BlockVersion, env, status string, at *time.Time) {
	switch env {
	case registry.EnvStaging:
		v.StagingStatus = status
		v.StagingPublishedAt = at
	case registry.EnvProduction:
		v.ProductionStatus = status
		v.ProductionPublishedAt = at
	}
}

func setPointer(b *models.Block, env string, version *string) {
	switch env {
	case registry.EnvStaging:
		b.StagingVersion = version
	case registry.EnvProduction:
		b.ProductionVersion = version
	}
}

func publishedAt(v *models.BlockVersion, env string) time.Time {
	var at *time.Time
	switch env {
	case registry.EnvStaging:
		at = v.StagingPublishedAt
	case registry.EnvProduction:
		at = v.ProductionPublishedAt
	}
	if at == nil {
		return time.Time{}
	}
	return *at
}

func review(req *models.ApprovalRequest, status, actor, comment string, now time.Time) *models.ApprovalRequest {
	r := *req
	r.Status = status
	r.ReviewedBy = &actor
	r.ReviewedAt = &now
	if c := strings.TrimSpace(comment); c != "" {
		r.Comment = &c
	}
	return &r
}

func cloneVersion(v *models.BlockVersion) *models.BlockVersion {
	c := *v
	c.Environments = append(datatypes.JSONSlice[string]{}, v.Environments...)
	return &c
}

func cloneBlock(b *models.Block) *models.Block {
	c := *b
	return &c
}
