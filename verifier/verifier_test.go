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

package verifier_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/openquill/quill/database"
	"github.com/openquill/quill/database/models"
	"github.com/openquill/quill/verifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVerifier(
	t *testing.T,
	opts ...verifier.VerifierOption,
) (*verifier.Verifier, *database.Database) {
	t.Helper()
	db, err := database.New(&database.Config{
		DataDir: t.TempDir(),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	v := verifier.New(verifier.VerifierConfig{
		Database: db,
	}, opts...)
	return v, db
}

func storedCertificate(t *testing.T, db *database.Database) *models.Certificate {
	t.Helper()
	cert := &models.Certificate{
		CertificateID:   "QC-20260115093000-AB12CD34",
		StudentName:     "Ada Lovelace",
		RollNo:          "CS-001",
		CourseName:      "Algorithms",
		Grade:           "A",
		InstitutionName: "Analytical Engine University",
		IssuedBy:        "issuer-1",
		IssuedDate:      "2026-01-15",
		CertificateHash: "memtx-abc",
	}
	require.NoError(t, db.CreateCertificate(context.Background(), cert))
	return cert
}

func matchingFields(cert *models.Certificate) verifier.ExtractedFields {
	return verifier.ExtractedFields{
		StudentName:     cert.StudentName,
		RollNo:          cert.RollNo,
		CourseName:      cert.CourseName,
		Grade:           cert.Grade,
		CertificateID:   cert.CertificateID,
		InstitutionName: cert.InstitutionName,
		IssuedDate:      cert.IssuedDate,
	}
}

func TestVerifyAuthentic(t *testing.T) {
	v, db := newTestVerifier(t)
	cert := storedCertificate(t, db)

	result, err := v.Verify(
		context.Background(),
		cert.CertificateID,
		matchingFields(cert),
	)
	require.NoError(t, err)
	assert.Equal(t, verifier.StatusAuthentic, result.Status)
	assert.Equal(t, 100, result.MatchPercentage)
	assert.False(t, result.IsRevoked)
	assert.Equal(t, uint(1), result.VerificationCount)
	for field, matched := range result.FieldsMatch {
		assert.True(t, matched, "field %s should match", field)
	}
}

func TestVerifyNormalization(t *testing.T) {
	v, db := newTestVerifier(t)
	cert := storedCertificate(t, db)

	fields := matchingFields(cert)
	fields.StudentName = "  ADA LOVELACE  "
	fields.CourseName = "algorithms"
	result, err := v.Verify(
		context.Background(),
		cert.CertificateID,
		fields,
	)
	require.NoError(t, err)
	assert.Equal(t, verifier.StatusAuthentic, result.Status)
	assert.Equal(t, 100, result.MatchPercentage)
}

func TestVerifySingleMismatchIsAltered(t *testing.T) {
	v, db := newTestVerifier(t)
	cert := storedCertificate(t, db)

	fields := matchingFields(cert)
	fields.Grade = "B"
	result, err := v.Verify(
		context.Background(),
		cert.CertificateID,
		fields,
	)
	require.NoError(t, err)
	// 5 of 6 fields match, rounded to 83%
	assert.Equal(t, verifier.StatusAltered, result.Status)
	assert.Equal(t, 83, result.MatchPercentage)
	assert.False(t, result.FieldsMatch["grade"])
	assert.True(t, result.FieldsMatch["studentName"])
}

func TestVerifyMultipleMismatchesAreFake(t *testing.T) {
	v, db := newTestVerifier(t)
	cert := storedCertificate(t, db)

	fields := matchingFields(cert)
	fields.Grade = "B"
	fields.StudentName = "Charles Babbage"
	result, err := v.Verify(
		context.Background(),
		cert.CertificateID,
		fields,
	)
	require.NoError(t, err)
	// 4 of 6 fields match, 67% is under the default threshold
	assert.Equal(t, verifier.StatusFake, result.Status)
	assert.Equal(t, 67, result.MatchPercentage)
}

func TestVerifyCustomThreshold(t *testing.T) {
	v, db := newTestVerifier(t, verifier.WithThreshold(60))
	cert := storedCertificate(t, db)

	fields := matchingFields(cert)
	fields.Grade = "B"
	fields.StudentName = "Charles Babbage"
	result, err := v.Verify(
		context.Background(),
		cert.CertificateID,
		fields,
	)
	require.NoError(t, err)
	assert.Equal(t, verifier.StatusAltered, result.Status)
}

func TestVerifyIssuedDateExactMatch(t *testing.T) {
	v, db := newTestVerifier(t)
	cert := storedCertificate(t, db)

	fields := matchingFields(cert)
	fields.IssuedDate = "2026-01-16"
	result, err := v.Verify(
		context.Background(),
		cert.CertificateID,
		fields,
	)
	require.NoError(t, err)
	assert.False(t, result.FieldsMatch["issuedDate"])
	assert.Equal(t, 83, result.MatchPercentage)
}

func TestVerifyUnknownIdIsFake(t *testing.T) {
	v, _ := newTestVerifier(t)

	result, err := v.Verify(
		context.Background(),
		"QC-DOES-NOT-EXIST",
		verifier.ExtractedFields{},
	)
	require.NoError(t, err)
	assert.Equal(t, verifier.StatusFake, result.Status)
	assert.Zero(t, result.MatchPercentage)
	assert.Zero(t, result.VerificationCount)
	assert.Nil(t, result.DatabaseFields)
	assert.Contains(t, result.Message, "no matching certificate record")
}

func TestVerifyRevokedOverridesMatch(t *testing.T) {
	v, db := newTestVerifier(t)
	cert := storedCertificate(t, db)
	require.NoError(t, db.RevokeCertificate(
		context.Background(),
		cert.ID,
		"degree rescinded",
	))

	result, err := v.Verify(
		context.Background(),
		cert.CertificateID,
		matchingFields(cert),
	)
	require.NoError(t, err)
	assert.Equal(t, verifier.StatusFake, result.Status)
	assert.True(t, result.IsRevoked)
	assert.Equal(t, 100, result.MatchPercentage)
	assert.Equal(t, uint(1), result.VerificationCount)
	assert.Contains(t, result.Message, "revoked")
	assert.Contains(t, result.Message, "degree rescinded")
}

func TestVerifyCaseInsensitiveLookup(t *testing.T) {
	v, db := newTestVerifier(t)
	cert := storedCertificate(t, db)

	result, err := v.Verify(
		context.Background(),
		"qc-20260115093000-ab12cd34",
		matchingFields(cert),
	)
	require.NoError(t, err)
	assert.Equal(t, verifier.StatusAuthentic, result.Status)
}

func TestVerifyInternalIdLookup(t *testing.T) {
	v, db := newTestVerifier(t)
	cert := storedCertificate(t, db)

	result, err := v.Verify(
		context.Background(),
		strconv.FormatUint(uint64(cert.ID), 10),
		matchingFields(cert),
	)
	require.NoError(t, err)
	assert.Equal(t, verifier.StatusAuthentic, result.Status)
	require.NotNil(t, result.DatabaseFields)
	assert.Equal(t, cert.CertificateID, result.DatabaseFields.CertificateID)
}

func TestVerifyReturnedRecordCarriesIncrementedCount(t *testing.T) {
	v, db := newTestVerifier(t)
	cert := storedCertificate(t, db)

	for attempt := 1; attempt <= 2; attempt++ {
		result, err := v.Verify(
			context.Background(),
			cert.CertificateID,
			matchingFields(cert),
		)
		require.NoError(t, err)
		require.NotNil(t, result.DatabaseFields)
		assert.Equal(t, uint(attempt), result.VerificationCount)
		assert.Equal(
			t,
			result.VerificationCount,
			result.DatabaseFields.VerificationCount,
		)
	}

	// same on the revoked path
	require.NoError(t, db.RevokeCertificate(
		context.Background(),
		cert.ID,
		"degree rescinded",
	))
	result, err := v.Verify(
		context.Background(),
		cert.CertificateID,
		matchingFields(cert),
	)
	require.NoError(t, err)
	require.NotNil(t, result.DatabaseFields)
	assert.Equal(t, uint(3), result.VerificationCount)
	assert.Equal(
		t,
		result.VerificationCount,
		result.DatabaseFields.VerificationCount,
	)
}

func TestVerifyCountIncrementsPerAttempt(t *testing.T) {
	v, db := newTestVerifier(t)
	cert := storedCertificate(t, db)

	for attempt := 1; attempt <= 3; attempt++ {
		result, err := v.Verify(
			context.Background(),
			cert.CertificateID,
			matchingFields(cert),
		)
		require.NoError(t, err)
		assert.Equal(t, uint(attempt), result.VerificationCount)
	}

	// unresolved attempts leave existing counters untouched
	_, err := v.Verify(
		context.Background(),
		"QC-UNKNOWN",
		verifier.ExtractedFields{},
	)
	require.NoError(t, err)
	stored, err := db.CertificateByID(context.Background(), cert.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(3), stored.VerificationCount)
}
