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

package quill_test

import (
	"context"
	"testing"
	"time"

	"github.com/openquill/quill"
	"github.com/openquill/quill/issuer"
	"github.com/openquill/quill/verifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *quill.Service {
	t.Helper()
	service, err := quill.New(
		quill.WithRunMode("dev"),
		quill.WithDataDir(t.TempDir()),
		quill.WithApiListenAddress("127.0.0.1:0"),
		quill.WithAdminIdentities([]string{"admin-1"}),
	)
	require.NoError(t, err)
	return service
}

func TestServiceInvalidConfig(t *testing.T) {
	// serve mode without a gateway URL
	_, err := quill.New(quill.WithDataDir(t.TempDir()))
	assert.Error(t, err)
}

func TestServiceIssueVerifyRoundTrip(t *testing.T) {
	service := newTestService(t)
	t.Cleanup(func() {
		_ = service.Stop()
	})
	ctx := context.Background()

	_, err := service.Registrar().Register(
		ctx,
		"issuer-1",
		"Analytical Engine University",
		"London",
	)
	require.NoError(t, err)
	require.NoError(t, service.Registrar().Approve(ctx, "admin-1", "issuer-1"))

	result, err := service.Issuer().Issue(ctx, issuer.CertificateData{
		StudentName:     "Ada Lovelace",
		RollNo:          "CS-001",
		CourseName:      "Algorithms",
		Grade:           "A",
		InstitutionName: "Analytical Engine University",
		IssuedBy:        "issuer-1",
		IssuedDate:      "2026-01-15",
	}, true)
	require.NoError(t, err)
	assert.Equal(t, issuer.OutcomeSuccess, result.Outcome)
	assert.True(t, result.Sources.Ledger)

	verification, err := service.Verifier().Verify(
		ctx,
		result.Certificate.CertificateID,
		verifier.ExtractedFields{
			StudentName:     "Ada Lovelace",
			RollNo:          "CS-001",
			CourseName:      "Algorithms",
			Grade:           "A",
			InstitutionName: "Analytical Engine University",
			IssuedDate:      "2026-01-15",
		},
	)
	require.NoError(t, err)
	assert.Equal(t, verifier.StatusAuthentic, verification.Status)

	report, err := service.Reconciler().SyncReport(ctx, "issuer-1", "issuer-1")
	require.NoError(t, err)
	assert.Equal(t, 100, report.Statistics.SyncPercentage)
}

func TestServiceRunAndStop(t *testing.T) {
	service := newTestService(t)

	runDone := make(chan error, 1)
	go func() {
		runDone <- service.Run(context.Background())
	}()
	// give the API listener a moment to come up
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, service.Stop())
	select {
	case err := <-runDone:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Stop")
	}

	// double Stop is a no-op
	assert.NoError(t, service.Stop())
}
