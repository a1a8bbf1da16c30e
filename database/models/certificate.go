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

package models

import (
	"time"
)

// Certificate is the canonical record for an issued academic credential.
// CertificateID is the human-shareable business key and doubles as the
// ledger-side lookup key. CertificateHash holds the ledger transaction
// reference when the record has an on-ledger counterpart, or a reserved
// placeholder token when it is database-only.
type Certificate struct {
	ID                uint   `gorm:"primarykey"`
	CertificateID     string `gorm:"uniqueIndex"`
	StudentName       string
	RollNo            string
	CourseName        string
	Grade             string
	InstitutionName   string
	IssuedBy          string `gorm:"index"`
	StudentWallet     string
	IssuedDate        string
	CertificateHash   string
	IsRevoked         bool `gorm:"default:false"`
	RevokedReason     string
	VerificationCount uint
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (c *Certificate) TableName() string {
	return "certificates"
}
