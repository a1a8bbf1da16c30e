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

// Institution status values. Institutions are created pending, move to
// verified or rejected by an administrative action, and may be re-verified
// after rejection.
const (
	InstitutionStatusPending  = "pending"
	InstitutionStatusVerified = "verified"
	InstitutionStatusRejected = "rejected"
)

// Institution is the authority record for an issuer identity. LedgerSetup
// records that the one-time ledger setup transaction for this identity has
// succeeded, so it is never re-issued.
type Institution struct {
	ID          uint   `gorm:"primarykey"`
	Identity    string `gorm:"uniqueIndex"`
	Name        string
	Location    string
	Status      string `gorm:"default:pending"`
	LedgerSetup bool   `gorm:"default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (i *Institution) TableName() string {
	return "institutions"
}
