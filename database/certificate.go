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
	"gorm.io/gorm/clause"
)

// CreateCertificate inserts a new canonical certificate record.
func (d *Database) CreateCertificate(
	ctx context.Context,
	cert *models.Certificate,
) error {
	result := d.db.WithContext(ctx).Create(cert)
	d.observe("certificate_create", result.Error)
	if result.Error != nil {
		return fmt.Errorf("create certificate: %w", result.Error)
	}
	return nil
}

// CertificateByCertificateID returns the certificate with the given business
// key, matched exactly.
func (d *Database) CertificateByCertificateID(
	ctx context.Context,
	certificateId string,
) (*models.Certificate, error) {
	var cert models.Certificate
	result := d.db.WithContext(ctx).
		Where("certificate_id = ?", certificateId).
		First(&cert)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			d.observe("certificate_get", ErrNotFound)
			return nil, ErrNotFound
		}
		d.observe("certificate_get", result.Error)
		return nil, fmt.Errorf("get certificate: %w", result.Error)
	}
	d.observe("certificate_get", nil)
	return &cert, nil
}

// CertificateByCertificateIDFold returns the certificate with the given
// business key, matched case-insensitively.
func (d *Database) CertificateByCertificateIDFold(
	ctx context.Context,
	certificateId string,
) (*models.Certificate, error) {
	var cert models.Certificate
	result := d.db.WithContext(ctx).
		Where("LOWER(certificate_id) = LOWER(?)", certificateId).
		First(&cert)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			d.observe("certificate_get_fold", ErrNotFound)
			return nil, ErrNotFound
		}
		d.observe("certificate_get_fold", result.Error)
		return nil, fmt.Errorf("get certificate: %w", result.Error)
	}
	d.observe("certificate_get_fold", nil)
	return &cert, nil
}

// CertificateByID returns the certificate with the given store-assigned
// internal id.
func (d *Database) CertificateByID(
	ctx context.Context,
	id uint,
) (*models.Certificate, error) {
	var cert models.Certificate
	result := d.db.WithContext(ctx).First(&cert, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			d.observe("certificate_get_internal", ErrNotFound)
			return nil, ErrNotFound
		}
		d.observe("certificate_get_internal", result.Error)
		return nil, fmt.Errorf("get certificate: %w", result.Error)
	}
	d.observe("certificate_get_internal", nil)
	return &cert, nil
}

// CertificatesByIssuer returns all certificates issued by the given issuer
// identity, oldest first.
func (d *Database) CertificatesByIssuer(
	ctx context.Context,
	issuer string,
) ([]models.Certificate, error) {
	certs := []models.Certificate{}
	result := d.db.WithContext(ctx).
		Where("issued_by = ?", issuer).
		Order("id ASC").
		Find(&certs)
	d.observe("certificate_list", result.Error)
	if result.Error != nil {
		return nil, fmt.Errorf("list certificates: %w", result.Error)
	}
	return certs, nil
}

// UpdateCertificate applies the given column patch to the certificate with
// the given internal id.
func (d *Database) UpdateCertificate(
	ctx context.Context,
	id uint,
	patch map[string]any,
) error {
	result := d.db.WithContext(ctx).
		Model(&models.Certificate{}).
		Where("id = ?", id).
		Updates(patch)
	d.observe("certificate_update", result.Error)
	if result.Error != nil {
		return fmt.Errorf("update certificate: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementVerificationCount atomically increments the verification counter
// on the certificate with the given internal id and returns the new value.
// The increment is a single UPDATE at the store, so concurrent verification
// attempts never lose increments.
func (d *Database) IncrementVerificationCount(
	ctx context.Context,
	id uint,
) (uint, error) {
	cert := models.Certificate{ID: id}
	result := d.db.WithContext(ctx).
		Model(&cert).
		Clauses(clause.Returning{
			Columns: []clause.Column{{Name: "verification_count"}},
		}).
		Where("id = ?", id).
		UpdateColumn(
			"verification_count",
			gorm.Expr("verification_count + ?", 1),
		)
	if result.Error != nil {
		d.observe("certificate_increment", result.Error)
		return 0, fmt.Errorf("increment verification count: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		d.observe("certificate_increment", ErrNotFound)
		return 0, ErrNotFound
	}
	d.observe("certificate_increment", nil)
	return cert.VerificationCount, nil
}

// RevokeCertificate marks the certificate with the given internal id as
// revoked on the canonical record. Ledger records are immutable and cannot
// be revoked in place.
func (d *Database) RevokeCertificate(
	ctx context.Context,
	id uint,
	reason string,
) error {
	return d.UpdateCertificate(ctx, id, map[string]any{
		"is_revoked":     true,
		"revoked_reason": reason,
	})
}
