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

// Package reconciler detects drift between the canonical record store and
// the append-only ledger for a single issuer. Ledger-only drift cannot be
// repaired automatically, since the ledger is immutable; it is surfaced for
// manual reconciliation.
package reconciler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sort"

	"github.com/openquill/quill/database"
	"github.com/openquill/quill/database/models"
	"github.com/openquill/quill/ledger"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrUnauthorized is returned when the caller's signing identity does not
// match the issuer identity being queried. The engine never discloses
// another issuer's reconciliation data.
var ErrUnauthorized = errors.New(
	"caller identity does not match issuer identity",
)

// Statistics summarizes sync state between the two stores.
type Statistics struct {
	TotalCanonical int `json:"totalCanonical"`
	TotalLedger    int `json:"totalLedger"`
	Synced         int `json:"synced"`
	CanonicalOnly  int `json:"canonicalOnly"`
	LedgerOnly     int `json:"ledgerOnly"`
	SyncPercentage int `json:"syncPercentage"`
}

// CertificateStatus is the per-certificate sync state of a canonical
// record.
type CertificateStatus struct {
	CertificateID  string `json:"certificateId"`
	IsOnBlockchain bool   `json:"isOnBlockchain"`
	Address        string `json:"address,omitempty"`
}

// Report is the full reconciliation output for an issuer.
type Report struct {
	Statistics    Statistics          `json:"statistics"`
	Certificates  []CertificateStatus `json:"perCertificateStatus"`
	LedgerOnlyIds []string            `json:"ledgerOnlyIds"`
}

// ForceSyncResult is the per-id outcome of a targeted ledger recheck.
type ForceSyncResult struct {
	CertificateID string `json:"certificateId"`
	Found         bool   `json:"found"`
	Address       string `json:"address,omitempty"`
	Error         string `json:"error,omitempty"`
}

// ReconcilerConfig is the configuration for creating a Reconciler.
type ReconcilerConfig struct {
	Database     *database.Database
	Ledger       ledger.Client
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
}

// Reconciler compares ledger and canonical state for an issuer.
type Reconciler struct {
	db      *database.Database
	ledger  ledger.Client
	logger  *slog.Logger
	metrics *reconcilerMetrics
}

// New creates a Reconciler from the given config.
func New(cfg ReconcilerConfig) *Reconciler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	r := &Reconciler{
		db:     cfg.Database,
		ledger: cfg.Ledger,
		logger: logger.With("component", "reconciler"),
	}
	if cfg.PromRegistry != nil {
		r.metrics = registerReconcilerMetrics(cfg.PromRegistry)
	}
	return r
}

// SyncReport fetches the full set of ledger records and canonical records
// for the issuer, computes the diff, and returns drift statistics. The two
// enumerations are independent and run concurrently; any store error aborts
// the entire report, since a partial report could mislead an issuer about
// real drift.
func (r *Reconciler) SyncReport(
	ctx context.Context,
	callerIdentity string,
	issuerIdentity string,
) (*Report, error) {
	if callerIdentity != issuerIdentity {
		return nil, ErrUnauthorized
	}

	var ledgerRecords []ledger.Record
	var ledgerErr error
	var canonicalRecords []models.Certificate
	var canonicalErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		ledgerRecords, ledgerErr = r.ledger.ListByIssuer(ctx, issuerIdentity)
	}()
	canonicalRecords, canonicalErr = r.db.CertificatesByIssuer(
		ctx,
		issuerIdentity,
	)
	<-done
	if ledgerErr != nil {
		return nil, ledgerErr
	}
	if canonicalErr != nil {
		return nil, canonicalErr
	}

	onLedger := make(map[string]ledger.Record, len(ledgerRecords))
	for _, record := range ledgerRecords {
		onLedger[record.CertificateID] = record
	}

	report := &Report{
		Certificates: make([]CertificateStatus, 0, len(canonicalRecords)),
	}
	synced := 0
	seen := make(map[string]struct{}, len(canonicalRecords))
	for _, cert := range canonicalRecords {
		record, ok := onLedger[cert.CertificateID]
		if ok {
			synced++
		}
		seen[cert.CertificateID] = struct{}{}
		report.Certificates = append(report.Certificates, CertificateStatus{
			CertificateID:  cert.CertificateID,
			IsOnBlockchain: ok,
			Address:        record.Address,
		})
	}
	ledgerOnlyIds := []string{}
	for certId := range onLedger {
		if _, ok := seen[certId]; !ok {
			ledgerOnlyIds = append(ledgerOnlyIds, certId)
		}
	}
	sort.Strings(ledgerOnlyIds)
	report.LedgerOnlyIds = ledgerOnlyIds

	totalCanonical := len(canonicalRecords)
	syncPercentage := 0
	if totalCanonical > 0 {
		syncPercentage = int(math.Round(
			float64(synced) / float64(totalCanonical) * 100,
		))
	}
	report.Statistics = Statistics{
		TotalCanonical: totalCanonical,
		TotalLedger:    len(ledgerRecords),
		Synced:         synced,
		CanonicalOnly:  totalCanonical - synced,
		LedgerOnly:     len(ledgerOnlyIds),
		SyncPercentage: syncPercentage,
	}
	if r.metrics != nil {
		r.metrics.reports.Inc()
		r.metrics.drift.WithLabelValues("canonical_only").
			Set(float64(report.Statistics.CanonicalOnly))
		r.metrics.drift.WithLabelValues("ledger_only").
			Set(float64(report.Statistics.LedgerOnly))
	}
	r.logger.Info(
		"computed sync report",
		"issuer", issuerIdentity,
		"totalCanonical", totalCanonical,
		"synced", synced,
		"ledgerOnly", len(ledgerOnlyIds),
	)
	return report, nil
}

// ForceSync performs a targeted ledger recheck of the named certificate
// ids, without a full rescan. It is used after a partial-success issuance
// to confirm whether a delayed or retried ledger write eventually landed.
func (r *Reconciler) ForceSync(
	ctx context.Context,
	callerIdentity string,
	issuerIdentity string,
	certificateIds []string,
) ([]ForceSyncResult, error) {
	if callerIdentity != issuerIdentity {
		return nil, ErrUnauthorized
	}
	results := make([]ForceSyncResult, 0, len(certificateIds))
	for _, certId := range certificateIds {
		record, err := r.ledger.GetCertificate(ctx, certId)
		if err != nil {
			results = append(results, ForceSyncResult{
				CertificateID: certId,
				Error:         err.Error(),
			})
			continue
		}
		results = append(results, ForceSyncResult{
			CertificateID: certId,
			Found:         true,
			Address:       record.Address,
		})
	}
	return results, nil
}
