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

package reconciler_test

import (
	"context"
	"testing"

	"github.com/openquill/quill/database"
	"github.com/openquill/quill/database/models"
	"github.com/openquill/quill/ledger"
	"github.com/openquill/quill/reconciler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReconciler(
	t *testing.T,
) (*reconciler.Reconciler, *database.Database, *ledger.MemoryLedger) {
	t.Helper()
	db, err := database.New(&database.Config{
		DataDir: t.TempDir(),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	mem := ledger.NewMemoryLedger()
	r := reconciler.New(reconciler.ReconcilerConfig{
		Database: db,
		Ledger:   mem,
	})
	return r, db, mem
}

func storeCertificate(
	t *testing.T,
	db *database.Database,
	certId string,
	issuer string,
) {
	t.Helper()
	require.NoError(t, db.CreateCertificate(
		context.Background(),
		&models.Certificate{
			CertificateID:   certId,
			StudentName:     "Ada Lovelace",
			RollNo:          "CS-001",
			CourseName:      "Algorithms",
			Grade:           "A",
			InstitutionName: "Analytical Engine University",
			IssuedBy:        issuer,
			IssuedDate:      "2026-01-15",
			CertificateHash: "offchain:" + certId,
		},
	))
}

func ledgerIssue(
	t *testing.T,
	mem *ledger.MemoryLedger,
	certId string,
	issuer string,
) {
	t.Helper()
	_, err := mem.IssueCertificate(
		context.Background(),
		issuer,
		ledger.IssueRequest{CertificateID: certId},
	)
	require.NoError(t, err)
}

func TestSyncReport(t *testing.T) {
	r, db, mem := newTestReconciler(t)
	ctx := context.Background()

	// three canonical records, two mirrored on the ledger, plus one
	// ledger-only record
	storeCertificate(t, db, "QC-1", "issuer-1")
	storeCertificate(t, db, "QC-2", "issuer-1")
	storeCertificate(t, db, "QC-3", "issuer-1")
	ledgerIssue(t, mem, "QC-1", "issuer-1")
	ledgerIssue(t, mem, "QC-2", "issuer-1")
	ledgerIssue(t, mem, "QC-99", "issuer-1")

	report, err := r.SyncReport(ctx, "issuer-1", "issuer-1")
	require.NoError(t, err)
	assert.Equal(
		t,
		reconciler.Statistics{
			TotalCanonical: 3,
			TotalLedger:    3,
			Synced:         2,
			CanonicalOnly:  1,
			LedgerOnly:     1,
			SyncPercentage: 67,
		},
		report.Statistics,
	)
	assert.Equal(t, []string{"QC-99"}, report.LedgerOnlyIds)

	require.Len(t, report.Certificates, 3)
	byId := make(map[string]reconciler.CertificateStatus)
	for _, status := range report.Certificates {
		byId[status.CertificateID] = status
	}
	assert.True(t, byId["QC-1"].IsOnBlockchain)
	assert.NotEmpty(t, byId["QC-1"].Address)
	assert.True(t, byId["QC-2"].IsOnBlockchain)
	assert.False(t, byId["QC-3"].IsOnBlockchain)
	assert.Empty(t, byId["QC-3"].Address)
}

func TestSyncReportEmpty(t *testing.T) {
	r, _, _ := newTestReconciler(t)

	report, err := r.SyncReport(
		context.Background(),
		"issuer-1",
		"issuer-1",
	)
	require.NoError(t, err)
	assert.Zero(t, report.Statistics.TotalCanonical)
	assert.Zero(t, report.Statistics.SyncPercentage)
	assert.Empty(t, report.Certificates)
	assert.Empty(t, report.LedgerOnlyIds)
}

func TestSyncReportScopedToIssuer(t *testing.T) {
	r, db, mem := newTestReconciler(t)

	storeCertificate(t, db, "QC-1", "issuer-1")
	storeCertificate(t, db, "QC-2", "issuer-2")
	ledgerIssue(t, mem, "QC-1", "issuer-1")
	ledgerIssue(t, mem, "QC-2", "issuer-2")

	report, err := r.SyncReport(
		context.Background(),
		"issuer-1",
		"issuer-1",
	)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Statistics.TotalCanonical)
	assert.Equal(t, 1, report.Statistics.TotalLedger)
	assert.Equal(t, 1, report.Statistics.Synced)
	assert.Equal(t, 100, report.Statistics.SyncPercentage)
}

func TestSyncReportUnauthorized(t *testing.T) {
	r, _, _ := newTestReconciler(t)

	_, err := r.SyncReport(context.Background(), "issuer-2", "issuer-1")
	assert.ErrorIs(t, err, reconciler.ErrUnauthorized)
}

func TestSyncReportLedgerFailureAborts(t *testing.T) {
	r, db, mem := newTestReconciler(t)

	storeCertificate(t, db, "QC-1", "issuer-1")
	mem.SetListError(ledger.ErrUnavailable)

	_, err := r.SyncReport(context.Background(), "issuer-1", "issuer-1")
	assert.ErrorIs(t, err, ledger.ErrUnavailable)
}

func TestForceSync(t *testing.T) {
	r, _, mem := newTestReconciler(t)

	ledgerIssue(t, mem, "QC-1", "issuer-1")

	results, err := r.ForceSync(
		context.Background(),
		"issuer-1",
		"issuer-1",
		[]string{"QC-1", "QC-MISSING"},
	)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, results[0].Found)
	assert.NotEmpty(t, results[0].Address)
	assert.Empty(t, results[0].Error)

	assert.False(t, results[1].Found)
	assert.Empty(t, results[1].Address)
	assert.NotEmpty(t, results[1].Error)
}

func TestForceSyncUnauthorized(t *testing.T) {
	r, _, _ := newTestReconciler(t)

	_, err := r.ForceSync(
		context.Background(),
		"issuer-2",
		"issuer-1",
		[]string{"QC-1"},
	)
	assert.ErrorIs(t, err, reconciler.ErrUnauthorized)
}
