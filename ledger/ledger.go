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

// Package ledger defines the capability interface for the append-only
// distributed ledger holding the immutable counterpart of each certificate,
// plus client implementations. Records written to the ledger are never
// mutated or deleted, which is why revocation lives only in the canonical
// record store.
package ledger

import (
	"context"
	"errors"
)

// Common errors returned by ledger clients.
var (
	// ErrNotFound indicates the requested record does not exist on the ledger.
	ErrNotFound = errors.New("record not found on ledger")
	// ErrUnavailable indicates the ledger could not be reached (network,
	// signing, or timeout failure).
	ErrUnavailable = errors.New("ledger unavailable")
	// ErrRejected indicates the ledger accepted the call but the transaction
	// itself failed.
	ErrRejected = errors.New("ledger transaction rejected")
)

// Record is the immutable ledger-side representation of a certificate.
// Address is the ledger-assigned location of the record, used for external
// reference and display only.
type Record struct {
	CertificateID string `json:"certificateId"`
	StudentName   string `json:"studentName"`
	CourseName    string `json:"courseName"`
	Grade         string `json:"grade"`
	Address       string `json:"address"`
}

// Proof is the result of a successful ledger write. Signature is the
// transaction reference stored as the canonical record's certificate hash.
type Proof struct {
	Signature string `json:"signature"`
	ProofURL  string `json:"proofUrl"`
}

// IssueRequest carries the mirrored subset of issuance data written to the
// ledger.
type IssueRequest struct {
	CertificateID string `json:"certificateId"`
	StudentName   string `json:"studentName"`
	CourseName    string `json:"courseName"`
	Grade         string `json:"grade"`
}

// BatchItemResult is the per-item outcome of a best-effort batch issue.
// There is no atomicity across the batch.
type BatchItemResult struct {
	CertificateID string
	Proof         *Proof
	Err           error
}

// Client is the capability interface consumed by the core engines. All
// implementations must honor context cancellation on every call.
type Client interface {
	// HasInstitution reports whether the issuer identity has a registered
	// institution on the ledger.
	HasInstitution(ctx context.Context, identity string) (bool, error)
	// SetupInstitution performs the one-time institution setup transaction.
	// Callers must not re-issue setup once it has succeeded.
	SetupInstitution(
		ctx context.Context,
		identity string,
		name string,
		location string,
	) error
	// IssueCertificate submits a certificate transaction signed by the
	// issuer identity.
	IssueCertificate(
		ctx context.Context,
		identity string,
		req IssueRequest,
	) (*Proof, error)
	// GetCertificate fetches a single ledger record by certificate id.
	// Returns ErrNotFound when absent.
	GetCertificate(ctx context.Context, certificateId string) (*Record, error)
	// ListByIssuer enumerates all ledger records for the issuer identity.
	ListByIssuer(ctx context.Context, identity string) ([]Record, error)
	// BatchIssue submits multiple certificate transactions, returning one
	// result per input item.
	BatchIssue(
		ctx context.Context,
		identity string,
		reqs []IssueRequest,
	) []BatchItemResult
}
