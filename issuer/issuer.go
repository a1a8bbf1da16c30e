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

// Package issuer drives the write path of a single certificate across the
// append-only ledger and the canonical record store, producing a unified
// outcome. Ledger failures downgrade the operation to a partial success
// with only the canonical write; canonical store failures are fatal to the
// whole operation, since a ledger-only record with no discoverable
// canonical entry is useless.
package issuer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openquill/quill/database"
	"github.com/openquill/quill/database/models"
	"github.com/openquill/quill/event"
	"github.com/openquill/quill/ledger"
	"github.com/openquill/quill/registrar"
	"github.com/prometheus/client_golang/prometheus"
)

// PlaceholderHashPrefix is the reserved prefix marking a certificate hash
// that is a locally generated placeholder rather than a ledger transaction
// reference.
const PlaceholderHashPrefix = "offchain:"

// HasLedgerProof reports whether the given certificate hash is a real
// ledger transaction reference rather than a database-only placeholder.
func HasLedgerProof(certificateHash string) bool {
	return certificateHash != "" &&
		!strings.HasPrefix(certificateHash, PlaceholderHashPrefix)
}

// Outcome classifies the result of an issuance.
type Outcome string

const (
	// OutcomeSuccess means every requested write succeeded.
	OutcomeSuccess Outcome = "success"
	// OutcomePartial means the canonical write succeeded but the requested
	// ledger write failed.
	OutcomePartial Outcome = "partial"
	// OutcomeFailed means the canonical write failed. A ledger write that
	// already landed is still reported via Proof, since it cannot be rolled
	// back.
	OutcomeFailed Outcome = "failed"
)

// Sources flags which stores hold the certificate after issuance.
type Sources struct {
	Canonical bool `json:"canonical"`
	Ledger    bool `json:"ledger"`
}

// CertificateData is the issuance input.
type CertificateData struct {
	StudentName     string
	RollNo          string
	CourseName      string
	Grade           string
	InstitutionName string
	IssuedBy        string
	StudentWallet   string
	IssuedDate      string
}

// IssueResult is the unified issuance outcome.
type IssueResult struct {
	Certificate *models.Certificate
	Proof       *ledger.Proof
	Outcome     Outcome
	Sources     Sources
	Warning     string
}

// BatchItemResult is the per-item outcome of a batch issuance. A failed
// item never aborts the rest of the batch.
type BatchItemResult struct {
	Result *IssueResult
	Err    error
}

// ValidationError indicates a missing or malformed required input. It is
// returned before any I/O is performed.
type ValidationError struct {
	Field string
}

func (e ValidationError) Error() string {
	return "missing required field: " + e.Field
}

// IssuerConfig is the configuration for creating an Issuer.
type IssuerConfig struct {
	Database     *database.Database
	Ledger       ledger.Client
	Registrar    *registrar.Registrar
	EventBus     *event.EventBus
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
}

// Issuer is the issuance orchestrator.
type Issuer struct {
	db        *database.Database
	ledger    ledger.Client
	registrar *registrar.Registrar
	eventBus  *event.EventBus
	logger    *slog.Logger
	metrics   *issuerMetrics
	// now is stubbed in tests for deterministic certificate ids
	now func() time.Time
}

// New creates an Issuer from the given config.
func New(cfg IssuerConfig) *Issuer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	i := &Issuer{
		db:        cfg.Database,
		ledger:    cfg.Ledger,
		registrar: cfg.Registrar,
		eventBus:  cfg.EventBus,
		logger:    logger.With("component", "issuer"),
		now:       time.Now,
	}
	if cfg.PromRegistry != nil {
		i.metrics = registerIssuerMetrics(cfg.PromRegistry)
	}
	return i
}

// GenerateCertificateID builds a new business key from a UTC timestamp
// component plus a short random suffix. Generation is collision-resistant
// without coordination, so concurrent issuance from the same issuer is
// safe.
func (i *Issuer) GenerateCertificateID() string {
	ts := i.now().UTC().Format("20060102150405")
	suffix := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("QC-%s-%s", ts, suffix)
}

func (i *Issuer) validate(data CertificateData) error {
	required := []struct {
		name  string
		value string
	}{
		{"studentName", data.StudentName},
		{"rollNo", data.RollNo},
		{"courseName", data.CourseName},
		{"grade", data.Grade},
		{"institutionName", data.InstitutionName},
		{"issuedBy", data.IssuedBy},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return ValidationError{Field: field.name}
		}
	}
	return nil
}

// Issue writes a certificate across the ledger (when enabled) and the
// canonical record store. Ledger failures are downgraded to a partial
// success and are recoverable later via the reconciliation engine's force
// sync; they are never retried silently within the same call. A canonical
// store failure fails the operation, but the returned result still carries
// the generated certificate id and any ledger proof already obtained.
func (i *Issuer) Issue(
	ctx context.Context,
	data CertificateData,
	enableLedger bool,
) (*IssueResult, error) {
	if err := i.validate(data); err != nil {
		return nil, err
	}
	issuedDate := data.IssuedDate
	if issuedDate == "" {
		issuedDate = i.now().UTC().Format("2006-01-02")
	}
	certificateId := i.GenerateCertificateID()

	var proof *ledger.Proof
	var ledgerErr error
	if enableLedger {
		proof, ledgerErr = i.writeLedger(ctx, data, certificateId)
	}

	certificateHash := PlaceholderHashPrefix + uuid.NewString()
	if proof != nil {
		certificateHash = proof.Signature
	}
	cert := &models.Certificate{
		CertificateID:   certificateId,
		StudentName:     data.StudentName,
		RollNo:          data.RollNo,
		CourseName:      data.CourseName,
		Grade:           data.Grade,
		InstitutionName: data.InstitutionName,
		IssuedBy:        data.IssuedBy,
		StudentWallet:   data.StudentWallet,
		IssuedDate:      issuedDate,
		CertificateHash: certificateHash,
	}
	if err := i.db.CreateCertificate(ctx, cert); err != nil {
		i.observe("failed")
		// The ledger write cannot be undone. Hand the proof and generated id
		// back with the error so the caller can force-sync the ledger-only
		// record later.
		return &IssueResult{
			Certificate: cert,
			Proof:       proof,
			Outcome:     OutcomeFailed,
			Sources: Sources{
				Canonical: false,
				Ledger:    proof != nil,
			},
		}, fmt.Errorf("canonical store write failed: %w", err)
	}

	result := &IssueResult{
		Certificate: cert,
		Proof:       proof,
		Outcome:     OutcomeSuccess,
		Sources: Sources{
			Canonical: true,
			Ledger:    proof != nil,
		},
	}
	if enableLedger && proof == nil {
		result.Outcome = OutcomePartial
		result.Warning = fmt.Sprintf(
			"certificate stored in database only, ledger write failed: %v",
			ledgerErr,
		)
	}
	i.observe(string(result.Outcome))
	i.logger.Info(
		"certificate issued",
		"certificateId", certificateId,
		"issuer", data.IssuedBy,
		"outcome", string(result.Outcome),
		"onLedger", proof != nil,
	)
	if i.eventBus != nil {
		i.eventBus.Publish(
			event.CertificateIssuedEventType,
			event.NewEvent(
				event.CertificateIssuedEventType,
				event.CertificateIssuedEvent{
					CertificateID: certificateId,
					Issuer:        data.IssuedBy,
					OnLedger:      proof != nil,
				},
			),
		)
	}
	return result, nil
}

// writeLedger performs the institution setup precondition and the ledger
// certificate write. Any error is fatal for the ledger path only.
func (i *Issuer) writeLedger(
	ctx context.Context,
	data CertificateData,
	certificateId string,
) (*ledger.Proof, error) {
	if err := i.registrar.EnsureLedgerSetup(ctx, data.IssuedBy); err != nil {
		i.logger.Warn(
			"ledger institution setup failed",
			"issuer", data.IssuedBy,
			"error", err,
		)
		return nil, err
	}
	proof, err := i.ledger.IssueCertificate(ctx, data.IssuedBy,
		ledger.IssueRequest{
			CertificateID: certificateId,
			StudentName:   data.StudentName,
			CourseName:    data.CourseName,
			Grade:         data.Grade,
		},
	)
	if err != nil {
		i.logger.Warn(
			"ledger certificate write failed",
			"certificateId", certificateId,
			"error", err,
		)
		return nil, err
	}
	return proof, nil
}

// IssueBatch issues multiple certificates, returning one result per input
// item in input order.
func (i *Issuer) IssueBatch(
	ctx context.Context,
	items []CertificateData,
	enableLedger bool,
) []BatchItemResult {
	results := make([]BatchItemResult, 0, len(items))
	for _, item := range items {
		result, err := i.Issue(ctx, item, enableLedger)
		results = append(results, BatchItemResult{
			Result: result,
			Err:    err,
		})
	}
	return results
}

func (i *Issuer) observe(outcome string) {
	if i.metrics == nil {
		return
	}
	i.metrics.issued.WithLabelValues(outcome).Inc()
}
