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

package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/openquill/quill/database/models"
	"gorm.io/gorm"
)

// CreateInstitution inserts a new institution record.
func (d *Database) CreateInstitution(
	ctx context.Context,
	inst *models.Institution,
) error {
	result := d.db.WithContext(ctx).Create(inst)
	d.observe("institution_create", result.Error)
	if result.Error != nil {
		return fmt.Errorf("create institution: %w", result.Error)
	}
	return nil
}

// InstitutionByIdentity returns the institution registered for the given
// issuer identity.
func (d *Database) InstitutionByIdentity(
	ctx context.Context,
	identity string,
) (*models.Institution, error) {
	var inst models.Institution
	result := d.db.WithContext(ctx).
		Where("identity = ?", identity).
		First(&inst)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			d.observe("institution_get", ErrNotFound)
			return nil, ErrNotFound
		}
		d.observe("institution_get", result.Error)
		return nil, fmt.Errorf("get institution: %w", result.Error)
	}
	d.observe("institution_get", nil)
	return &inst, nil
}

// Institutions returns all registered institutions, oldest first.
func (d *Database) Institutions(
	ctx context.Context,
) ([]models.Institution, error) {
	insts := []models.Institution{}
	result := d.db.WithContext(ctx).Order("id ASC").Find(&insts)
	d.observe("institution_list", result.Error)
	if result.Error != nil {
		return nil, fmt.Errorf("list institutions: %w", result.Error)
	}
	return insts, nil
}

// SetInstitutionStatus updates the lifecycle status of the institution with
// the given identity.
func (d *Database) SetInstitutionStatus(
	ctx context.Context,
	identity string,
	status string,
) error {
	result := d.db.WithContext(ctx).
		Model(&models.Institution{}).
		Where("identity = ?", identity).
		Update("status", status)
	d.observe("institution_set_status", result.Error)
	if result.Error != nil {
		return fmt.Errorf("set institution status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkInstitutionLedgerSetup records that the one-time ledger setup
// transaction for the given identity has succeeded.
func (d *Database) MarkInstitutionLedgerSetup(
	ctx context.Context,
	identity string,
) error {
	result := d.db.WithContext(ctx).
		Model(&models.Institution{}).
		Where("identity = ?", identity).
		Update("ledger_setup", true)
	d.observe("institution_ledger_setup", result.Error)
	if result.Error != nil {
		return fmt.Errorf("mark institution ledger setup: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
