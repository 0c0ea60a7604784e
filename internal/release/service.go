// service.go
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
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/localnerve/blockrelease/internal/models"
	"github.com/localnerve/blockrelease/internal/registry"
	"github.com/localnerve/blockrelease/internal/store"
	"github.com/localnerve/blockrelease/internal/tracing"
)

// Service applies release decisions. Each command runs in one store
// transaction, and commands touching the same version are serialized in
// process as well.
type Service struct {
	store store.Store
	locks *keyedMutex
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService returns a Service backed by st.
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		locks: newKeyedMutex(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// begin opens the command span; the returned func records the outcome.
func (s *Service) begin(ctx context.Context, command string, attrs map[string]string) (context.Context, func(error)) {
	ctx, span := tracing.StartSpan(ctx, "release."+command)
	span.WithAttributes(attrs)
	return ctx, func(err error) {
		transitions.WithLabelValues(command, outcome(err)).Inc()
		tracing.EndSpan(span, err)
	}
}

func requireActor(actor string) error {
	if strings.TrimSpace(actor) == "" {
		return Validationf("an acting principal is required")
	}
	return nil
}

// missing converts store.ErrNotFound into a NotFound release error.
func missing(err error, format string, args ...interface{}) error {
	if errors.Is(err, store.ErrNotFound) {
		return NotFoundf(format, args...)
	}
	return err
}

// lockVersion loads the block then the version with row locks, always in that
// order so concurrent commands on one block cannot deadlock.
func lockVersion(ctx context.Context, tx store.Store, versionID string) (*models.Block, *models.BlockVersion, error) {
	peek, err := tx.GetVersion(ctx, versionID)
	if err != nil {
		return nil, nil, missing(err, "version %s not found", versionID)
	}
	block, err := tx.GetBlockForUpdate(ctx, peek.BlockID)
	if err != nil {
		return nil, nil, missing(err, "block %s not found", peek.BlockID)
	}
	version, err := tx.GetVersionForUpdate(ctx, versionID)
	if err != nil {
		return nil, nil, missing(err, "version %s not found", versionID)
	}
	return block, version, nil
}

func apply(ctx context.Context, tx store.Store, t Transition) error {
	for _, d := range t.Displaced {
		if err := tx.SaveVersion(ctx, d); err != nil {
			return err
		}
	}
	if err := tx.SaveVersion(ctx, t.Version); err != nil {
		return err
	}
	if t.Block != nil {
		if err := tx.SaveBlock(ctx, t.Block); err != nil {
			return err
		}
	}
	if t.Request != nil {
		if t.Request.ID == "" {
			return tx.CreateApprovalRequest(ctx, t.Request)
		}
		return tx.SaveApprovalRequest(ctx, t.Request)
	}
	return nil
}

// SubmitApproval opens a pending production approval request for a version.
func (s *Service) SubmitApproval(ctx context.Context, actor, versionID string) (req *models.ApprovalRequest, err error) {
	ctx, done := s.begin(ctx, "SubmitApproval", map[string]string{"version.id": versionID})
	defer func() { done(err) }()

	if err = requireActor(actor); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(versionID)
	defer unlock()

	var t Transition
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		block, version, err := lockVersion(ctx, tx, versionID)
		if err != nil {
			return err
		}
		pending, err := tx.PendingRequestForVersion(ctx, versionID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if t, err = DecideSubmit(block, version, pending, actor, s.clock()); err != nil {
			return err
		}
		return apply(ctx, tx, t)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("release: %s submitted %s@%s for approval (request %s)", actor, t.Block.Name, t.Version.Version, t.Request.ID)
	return t.Request, nil
}

// ApproveRequest approves a pending request; comment is optional.
func (s *Service) ApproveRequest(ctx context.Context, actor, requestID, comment string) (req *models.ApprovalRequest, err error) {
	ctx, done := s.begin(ctx, "ApproveRequest", map[string]string{"request.id": requestID})
	defer func() { done(err) }()

	if err = requireActor(actor); err != nil {
		return nil, err
	}
	return s.review(ctx, requestID, func(r *models.ApprovalRequest, v *models.BlockVersion, b *models.Block, now time.Time) (Transition, error) {
		return DecideApprove(r, v, b, actor, comment, now)
	}, actor, "approved")
}

// RejectRequest rejects a pending request; comment is required.
func (s *Service) RejectRequest(ctx context.Context, actor, requestID, comment string) (req *models.ApprovalRequest, err error) {
	ctx, done := s.begin(ctx, "RejectRequest", map[string]string{"request.id": requestID})
	defer func() { done(err) }()

	if err = requireActor(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(comment) == "" {
		return nil, Validationf("a comment is required to reject an approval request")
	}
	return s.review(ctx, requestID, func(r *models.ApprovalRequest, v *models.BlockVersion, _ *models.Block, now time.Time) (Transition, error) {
		return DecideReject(r, v, actor, comment, now)
	}, actor, "rejected")
}

type reviewFunc func(*models.ApprovalRequest, *models.BlockVersion, *models.Block, time.Time) (Transition, error)

// review locks the request then its version and applies decide.
func (s *Service) review(ctx context.Context, requestID string, decide reviewFunc, actor, verb string) (*models.ApprovalRequest, error) {
	unlockRequest := s.locks.Lock(requestID)
	defer unlockRequest()

	peek, err := s.store.GetApprovalRequest(ctx, requestID)
	if err != nil {
		return nil, missing(err, "approval request %s not found", requestID)
	}
	unlockVersion := s.locks.Lock(peek.VersionID)
	defer unlockVersion()

	var t Transition
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		block, version, err := lockVersion(ctx, tx, peek.VersionID)
		if err != nil {
			return err
		}
		req, err := tx.GetApprovalRequestForUpdate(ctx, requestID)
		if err != nil {
			return missing(err, "approval request %s not found", requestID)
		}
		if t, err = decide(req, version, block, s.clock()); err != nil {
			return err
		}
		return apply(ctx, tx, t)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("release: %s %s request %s for %s@%s", actor, verb, t.Request.ID, t.Request.BlockName, t.Request.Version)
	return t.Request, nil
}

// PublishVersion makes a version live in env, displacing the previous holder
// of that block, region and environment.
func (s *Service) PublishVersion(ctx context.Context, actor, versionID, env, region string) (version *models.BlockVersion, err error) {
	ctx, done := s.begin(ctx, "PublishVersion", map[string]string{"version.id": versionID, "environment": env})
	defer func() { done(err) }()

	if err = requireActor(actor); err != nil {
		return nil, err
	}
	if !registry.IsEnvironment(env) {
		return nil, Validationf("unknown environment %q", env)
	}
	if region != "" && !registry.IsRegion(region) {
		return nil, Validationf("unknown region %q", region)
	}

	unlock := s.locks.Lock(versionID)
	defer unlock()

	var t Transition
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		block, current, err := lockVersion(ctx, tx, versionID)
		if err != nil {
			return err
		}
		live, err := tx.LiveVersionsForUpdate(ctx, block.ID, current.Region, env)
		if err != nil {
			return err
		}
		if t, err = DecidePublish(block, current, env, region, live, s.clock()); err != nil {
			return err
		}
		return apply(ctx, tx, t)
	})
	if err != nil {
		return nil, err
	}

	for _, d := range t.Displaced {
		log.Printf("release: %s@%s displaced from %s", t.Block.Name, d.Version, env)
	}
	log.Printf("release: %s published %s@%s (%s) to %s", actor, t.Block.Name, t.Version.Version, t.Version.Region, env)
	return t.Version, nil
}

// UnpublishVersion retracts a version from env.
func (s *Service) UnpublishVersion(ctx context.Context, actor, versionID, env string) (version *models.BlockVersion, err error) {
	ctx, done := s.begin(ctx, "UnpublishVersion", map[string]string{"version.id": versionID, "environment": env})
	defer func() { done(err) }()

	if err = requireActor(actor); err != nil {
		return nil, err
	}
	if !registry.IsEnvironment(env) {
		return nil, Validationf("unknown environment %q", env)
	}

	unlock := s.locks.Lock(versionID)
	defer unlock()

	var t Transition
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		block, current, err := lockVersion(ctx, tx, versionID)
		if err != nil {
			return err
		}
		live, err := tx.LiveVersionsForUpdate(ctx, block.ID, "", env)
		if err != nil {
			return err
		}
		if t, err = DecideUnpublish(block, current, env, live, s.clock()); err != nil {
			return err
		}
		return apply(ctx, tx, t)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("release: %s unpublished %s@%s from %s", actor, t.Block.Name, t.Version.Version, env)
	return t.Version, nil
}

// ListApprovalRequests pages requests newest first.
func (s *Service) ListApprovalRequests(ctx context.Context, filter store.ApprovalFilter) (*store.Paginated[models.ApprovalRequest], error) {
	if filter.Status != "" {
		switch filter.Status {
		case models.ApprovalPending, models.ApprovalApproved, models.ApprovalRejected:
		default:
			return nil, Validationf("unknown approval status %q", filter.Status)
		}
	}
	return s.store.ListApprovalRequests(ctx, filter)
}

// LatestApprovalForVersion returns the newest request for a version.
func (s *Service) LatestApprovalForVersion(ctx context.Context, versionID string) (*models.ApprovalRequest, error) {
	req, err := s.store.LatestRequestForVersion(ctx, versionID)
	if err != nil {
		return nil, missing(err, "no approval request for version %s", versionID)
	}
	return req, nil
}

// ListBlockVersions lists a block's versions newest first. A concrete region
// also returns versions targeting every region.
func (s *Service) ListBlockVersions(ctx context.Context, blockID, region string) ([]models.BlockVersion, error) {
	if region != "" && !registry.IsRegion(region) {
		return nil, Validationf("unknown region %q", region)
	}
	if _, err := s.store.GetBlock(ctx, blockID); err != nil {
		return nil, missing(err, "block %s not found", blockID)
	}
	versions, err := s.store.ListVersions(ctx, store.VersionFilter{BlockID: blockID, Region: region})
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return versions, nil
}
