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

package ledger

import (
	"context"
	"fmt"
	"sync"
)

type memoryInstitution struct {
	name     string
	location string
}

// MemoryLedger is an in-process Client implementation used for tests and
// for the dev run mode. Records are append-only: nothing is ever mutated or
// removed once written. Failure injection switches simulate gateway outages
// and transaction rejection.
type MemoryLedger struct {
	mu           sync.Mutex
	institutions map[string]memoryInstitution
	records      map[string]Record
	byIssuer     map[string][]string
	issueErr     error
	listErr      error
	getErr       error
	setupCount   int
	nextAddr     int
}

// NewMemoryLedger creates an empty in-process ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		institutions: make(map[string]memoryInstitution),
		records:      make(map[string]Record),
		byIssuer:     make(map[string][]string),
	}
}

// SetIssueError injects an error returned by subsequent IssueCertificate
// calls. Pass nil to clear.
func (m *MemoryLedger) SetIssueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issueErr = err
}

// SetListError injects an error returned by subsequent ListByIssuer calls.
func (m *MemoryLedger) SetListError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
}

// SetGetError injects an error returned by subsequent GetCertificate calls.
func (m *MemoryLedger) SetGetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErr = err
}

// SetupCount returns how many setup transactions have been performed.
func (m *MemoryLedger) SetupCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setupCount
}

func (m *MemoryLedger) HasInstitution(
	ctx context.Context,
	identity string,
) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.institutions[identity]
	return ok, nil
}

func (m *MemoryLedger) SetupInstitution(
	ctx context.Context,
	identity string,
	name string,
	location string,
) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setupCount++
	m.institutions[identity] = memoryInstitution{
		name:     name,
		location: location,
	}
	return nil
}

func (m *MemoryLedger) IssueCertificate(
	ctx context.Context,
	identity string,
	req IssueRequest,
) (*Proof, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.issueErr != nil {
		return nil, m.issueErr
	}
	if _, ok := m.records[req.CertificateID]; ok {
		return nil, fmt.Errorf(
			"%w: certificate %s already on ledger",
			ErrRejected,
			req.CertificateID,
		)
	}
	m.nextAddr++
	record := Record{
		CertificateID: req.CertificateID,
		StudentName:   req.StudentName,
		CourseName:    req.CourseName,
		Grade:         req.Grade,
		Address:       fmt.Sprintf("mem%012d", m.nextAddr),
	}
	m.records[req.CertificateID] = record
	m.byIssuer[identity] = append(m.byIssuer[identity], req.CertificateID)
	return &Proof{
		Signature: "memtx-" + req.CertificateID,
		ProofURL:  "memory://tx/" + req.CertificateID,
	}, nil
}

func (m *MemoryLedger) GetCertificate(
	ctx context.Context,
	certificateId string,
) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	record, ok := m.records[certificateId]
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

func (m *MemoryLedger) ListByIssuer(
	ctx context.Context,
	identity string,
) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	records := []Record{}
	for _, certId := range m.byIssuer[identity] {
		records = append(records, m.records[certId])
	}
	return records, nil
}

func (m *MemoryLedger) BatchIssue(
	ctx context.Context,
	identity string,
	reqs []IssueRequest,
) []BatchItemResult {
	results := make([]BatchItemResult, 0, len(reqs))
	for _, req := range reqs {
		proof, err := m.IssueCertificate(ctx, identity, req)
		results = append(results, BatchItemResult{
			CertificateID: req.CertificateID,
			Proof:         proof,
			Err:           err,
		})
	}
	return results
}
