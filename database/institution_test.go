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

package database_test

import (
	"context"
	"testing"

	"github.com/openquill/quill/database"
	"github.com/openquill/quill/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstitutionLifecycle(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	inst := &models.Institution{
		Identity: "issuer-1",
		Name:     "Analytical Engine University",
		Location: "London",
		Status:   models.InstitutionStatusPending,
	}
	require.NoError(t, db.CreateInstitution(ctx, inst))

	fetched, err := db.InstitutionByIdentity(ctx, "issuer-1")
	require.NoError(t, err)
	assert.Equal(t, models.InstitutionStatusPending, fetched.Status)
	assert.False(t, fetched.LedgerSetup)

	require.NoError(t, db.SetInstitutionStatus(
		ctx,
		"issuer-1",
		models.InstitutionStatusVerified,
	))
	require.NoError(t, db.MarkInstitutionLedgerSetup(ctx, "issuer-1"))

	fetched, err = db.InstitutionByIdentity(ctx, "issuer-1")
	require.NoError(t, err)
	assert.Equal(t, models.InstitutionStatusVerified, fetched.Status)
	assert.True(t, fetched.LedgerSetup)

	insts, err := db.Institutions(ctx)
	require.NoError(t, err)
	assert.Len(t, insts, 1)
}

func TestInstitutionNotFound(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	_, err := db.InstitutionByIdentity(ctx, "missing")
	assert.ErrorIs(t, err, database.ErrNotFound)
	err = db.SetInstitutionStatus(
		ctx,
		"missing",
		models.InstitutionStatusVerified,
	)
	assert.ErrorIs(t, err, database.ErrNotFound)
	err = db.MarkInstitutionLedgerSetup(ctx, "missing")
	assert.ErrorIs(t, err, database.ErrNotFound)
}
