// Copyright 2026 OpenQuill Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package registrar manages institution lifecycle, administrative
// authorization, and certificate revocation. Revocation only touches the
// canonical record; ledger records are immutable and cannot be revoked in
// place.
package registrar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/openquill/quill/database"
	"github.com/openquill/quill/database/models"
	"github.com/openquill/quill/event"
	"github.com/openquill/quill/ledger"
)

// Common errors returned by Registrar operations.
var (
	ErrUnauthorized      = errors.New("caller identity is not authorized")
	ErrAlreadyRegistered = errors.New("institution already registered")
	ErrNotVerified       = errors.New("institution is not verified")
)

// AdminPolicy decides whether an identity may perform administrative
// actions. It is injected so the engines never embed identity constants.
type AdminPolicy interface {
	IsAdmin(identity string) bool
}

// AllowListPolicy is an AdminPolicy backed by a configured list of admin
// identities.
type AllowListPolicy struct {
	identities map[string]struct{}
}

// NewAllowListPolicy creates an AllowListPolicy from the given identities.
func NewAllowListPolicy(identities []string) *AllowListPolicy {
	p := &AllowListPolicy{
		identities: make(map[string]struct{}, len(identities)),
	}
	for _, identity := range identities {
		p.identities[identity] = struct{}{}
	}
	return p
}

func (p *AllowListPolicy) IsAdmin(identity string) bool {
	_, ok := p.identities[identity]
	return ok
}

// RegistrarConfig is the configuration for creating a Registrar.
type RegistrarConfig struct {
	Database *database.Database
	Ledger   ledger.Client
	EventBus *event.EventBus
	Policy   AdminPolicy
	Logger   *slog.Logger
}

// Registrar manages institution records and revocation.
type Registrar struct {
	db       *database.Database
	ledger   ledger.Client
	eventBus *event.EventBus
	policy   AdminPolicy
	logger   *slog.Logger
}

// New creates a Registrar from the given config.
func New(cfg RegistrarConfig) *Registrar {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	policy := cfg.Policy
	if policy == nil {
		policy = NewAllowListPolicy(nil)
	}
	return &Registrar{
		db:       cfg.Database,
		ledger:   cfg.Ledger,
		eventBus: cfg.EventBus,
		policy:   policy,
		logger:   logger.With("component", "registrar"),
	}
}

// Register creates a new pending institution for the given issuer identity.
func (r *Registrar) Register(
	ctx context.Context,
	identity string,
	name string,
	location string,
) (*models.Institution, error) {
	if identity == "" || name == "" {
		return nil, errors.New("identity and name are required")
	}
	if _, err := r.db.InstitutionByIdentity(ctx, identity); err == nil {
		return nil, ErrAlreadyRegistered
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}
	inst := &models.Institution{
		Identity: identity,
		Name:     name,
		Location: location,
		Status:   models.InstitutionStatusPending,
	}
	if err := r.db.CreateInstitution(ctx, inst); err != nil {
		return nil, err
	}
	r.logger.Info(
		"institution registered",
		"identity", identity,
		"name", name,
	)
	if r.eventBus != nil {
		r.eventBus.Publish(
			event.InstitutionRegisteredEventType,
			event.NewEvent(
				event.InstitutionRegisteredEventType,
				event.InstitutionRegisteredEvent{
					Identity: identity,
					Name:     name,
				},
			),
		)
	}
	return inst, nil
}

// Approve marks the institution as verified. Approving a previously
// rejected institution is the override path and is allowed.
func (r *Registrar) Approve(
	ctx context.Context,
	adminIdentity string,
	identity string,
) error {
	return r.setStatus(
		ctx,
		adminIdentity,
		identity,
		models.InstitutionStatusVerified,
	)
}

// Reject marks the institution as rejected.
func (r *Registrar) Reject(
	ctx context.Context,
	adminIdentity string,
	identity string,
) error {
	return r.setStatus(
		ctx,
		adminIdentity,
		identity,
		models.InstitutionStatusRejected,
	)
}

func (r *Registrar) setStatus(
	ctx context.Context,
	adminIdentity string,
	identity string,
	status string,
) error {
	if !r.policy.IsAdmin(adminIdentity) {
		return ErrUnauthorized
	}
	if err := r.db.SetInstitutionStatus(ctx, identity, status); err != nil {
		return err
	}
	r.logger.Info(
		"institution status changed",
		"identity", identity,
		"status", status,
		"admin", adminIdentity,
	)
	if r.eventBus != nil {
		r.eventBus.Publish(
			event.InstitutionStatusChangedEventType,
			event.NewEvent(
				event.InstitutionStatusChangedEventType,
				event.InstitutionStatusChangedEvent{
					Identity: identity,
					Status:   status,
				},
			),
		)
	}
	return nil
}

// EnsureLedgerSetup makes sure the issuer identity has a registered
// institution on the ledger, performing the one-time setup transaction if
// needed. Only verified institutions may write to the ledger. Setup is
// recorded on the institution record so it is never re-issued once it has
// succeeded.
func (r *Registrar) EnsureLedgerSetup(
	ctx context.Context,
	identity string,
) error {
	inst, err := r.db.InstitutionByIdentity(ctx, identity)
	if err != nil {
		return fmt.Errorf("resolving institution for %s: %w", identity, err)
	}
	if inst.Status != models.InstitutionStatusVerified {
		return fmt.Errorf(
			"%w: institution %s is %s",
			ErrNotVerified,
			identity,
			inst.Status,
		)
	}
	if inst.LedgerSetup {
		return nil
	}
	has, err := r.ledger.HasInstitution(ctx, identity)
	if err != nil {
		return err
	}
	if !has {
		if err := r.ledger.SetupInstitution(
			ctx,
			identity,
			inst.Name,
			inst.Location,
		); err != nil {
			return err
		}
		r.logger.Info(
			"performed one-time ledger institution setup",
			"identity", identity,
		)
	}
	return r.db.MarkInstitutionLedgerSetup(ctx, identity)
}

// Revoke sets the revoked flag on the canonical certificate record. Only
// the issuing identity or an admin may revoke. Returns the updated record.
func (r *Registrar) Revoke(
	ctx context.Context,
	certificateId string,
	reason string,
	actingIdentity string,
) (*models.Certificate, error) {
	cert, err := r.db.CertificateByCertificateID(ctx, certificateId)
	if err != nil {
		return nil, err
	}
	if actingIdentity != cert.IssuedBy &&
		!r.policy.IsAdmin(actingIdentity) {
		return nil, ErrUnauthorized
	}
	if err := r.db.RevokeCertificate(ctx, cert.ID, reason); err != nil {
		return nil, err
	}
	r.logger.Info(
		"certificate revoked",
		"certificateId", certificateId,
		"actingIdentity", actingIdentity,
	)
	if r.eventBus != nil {
		r.eventBus.Publish(
			event.CertificateRevokedEventType,
			event.NewEvent(
				event.CertificateRevokedEventType,
				event.CertificateRevokedEvent{
					CertificateID:  certificateId,
					Reason:         reason,
					ActingIdentity: actingIdentity,
				},
			),
		)
	}
	return r.db.CertificateByID(ctx, cert.ID)
}
