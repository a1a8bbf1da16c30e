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

package ledger_test

import (
	"context"
	"testing"

	"github.com/openquill/quill/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedgerIssueAndGet(t *testing.T) {
	mem := ledger.NewMemoryLedger()
	ctx := context.Background()

	proof, err := mem.IssueCertificate(ctx, "issuer-1", ledger.IssueRequest{
		CertificateID: "QC-1",
		StudentName:   "Ada Lovelace",
		CourseName:    "Algorithms",
		Grade:         "A",
	})
	require.NoError(t, err)
	require.NotNil(t, proof)
	assert.Equal(t, "memtx-QC-1", proof.Signature)

	record, err := mem.GetCertificate(ctx, "QC-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", record.StudentName)
	assert.NotEmpty(t, record.Address)

	_, err = mem.GetCertificate(ctx, "QC-MISSING")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestMemoryLedgerDuplicateIssueRejected(t *testing.T) {
	mem := ledger.NewMemoryLedger()
	ctx := context.Background()

	_, err := mem.IssueCertificate(ctx, "issuer-1", ledger.IssueRequest{
		CertificateID: "QC-1",
	})
	require.NoError(t, err)

	_, err = mem.IssueCertificate(ctx, "issuer-1", ledger.IssueRequest{
		CertificateID: "QC-1",
	})
	assert.ErrorIs(t, err, ledger.ErrRejected)
}

func TestMemoryLedgerInstitutionSetup(t *testing.T) {
	mem := ledger.NewMemoryLedger()
	ctx := context.Background()

	has, err := mem.HasInstitution(ctx, "issuer-1")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(
		t,
		mem.SetupInstitution(ctx, "issuer-1", "AEU", "London"),
	)

	has, err = mem.HasInstitution(ctx, "issuer-1")
	require.NoError(t, err)
	assert.True(t, has)
	assert.Equal(t, 1, mem.SetupCount())
}

func TestMemoryLedgerListByIssuer(t *testing.T) {
	mem := ledger.NewMemoryLedger()
	ctx := context.Background()

	for _, certId := range []string{"QC-1", "QC-2"} {
		_, err := mem.IssueCertificate(ctx, "issuer-1", ledger.IssueRequest{
			CertificateID: certId,
		})
		require.NoError(t, err)
	}
	_, err := mem.IssueCertificate(ctx, "issuer-2", ledger.IssueRequest{
		CertificateID: "QC-3",
	})
	require.NoError(t, err)

	records, err := mem.ListByIssuer(ctx, "issuer-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "QC-1", records[0].CertificateID)
	assert.Equal(t, "QC-2", records[1].CertificateID)

	records, err = mem.ListByIssuer(ctx, "issuer-3")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestMemoryLedgerFailureInjection(t *testing.T) {
	mem := ledger.NewMemoryLedger()
	ctx := context.Background()

	mem.SetIssueError(ledger.ErrUnavailable)
	_, err := mem.IssueCertificate(ctx, "issuer-1", ledger.IssueRequest{
		CertificateID: "QC-1",
	})
	assert.ErrorIs(t, err, ledger.ErrUnavailable)

	mem.SetIssueError(nil)
	_, err = mem.IssueCertificate(ctx, "issuer-1", ledger.IssueRequest{
		CertificateID: "QC-1",
	})
	require.NoError(t, err)

	mem.SetListError(ledger.ErrUnavailable)
	_, err = mem.ListByIssuer(ctx, "issuer-1")
	assert.ErrorIs(t, err, ledger.ErrUnavailable)

	mem.SetGetError(ledger.ErrUnavailable)
	_, err = mem.GetCertificate(ctx, "QC-1")
	assert.ErrorIs(t, err, ledger.ErrUnavailable)
}

func TestMemoryLedgerContextCancellation(t *testing.T) {
	mem := ledger.NewMemoryLedger()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mem.IssueCertificate(ctx, "issuer-1", ledger.IssueRequest{
		CertificateID: "QC-1",
	})
	assert.ErrorIs(t, err, ledger.ErrUnavailable)
}
