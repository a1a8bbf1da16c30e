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

package api

import (
	"github.com/openquill/quill/database/models"
	"github.com/openquill/quill/issuer"
	"github.com/openquill/quill/ledger"
	"github.com/openquill/quill/verifier"
)

type certificateJSON struct {
	Id                uint   `json:"id"`
	CertificateId     string `json:"certificateId"`
	StudentName       string `json:"studentName"`
	RollNo            string `json:"rollNo"`
	CourseName        string `json:"courseName"`
	Grade             string `json:"grade"`
	InstitutionName   string `json:"institutionName"`
	IssuedBy          string `json:"issuedBy"`
	StudentWallet     string `json:"studentWallet,omitempty"`
	IssuedDate        string `json:"issuedDate"`
	CertificateHash   string `json:"certificateHash"`
	IsRevoked         bool   `json:"isRevoked"`
	VerificationCount uint   `json:"verificationCount"`
}

func toCertificateJSON(cert *models.Certificate) *certificateJSON {
	if cert == nil {
		return nil
	}
	return &certificateJSON{
		Id:                cert.ID,
		CertificateId:     cert.CertificateID,
		StudentName:       cert.StudentName,
		RollNo:            cert.RollNo,
		CourseName:        cert.CourseName,
		Grade:             cert.Grade,
		InstitutionName:   cert.InstitutionName,
		IssuedBy:          cert.IssuedBy,
		StudentWallet:     cert.StudentWallet,
		IssuedDate:        cert.IssuedDate,
		CertificateHash:   cert.CertificateHash,
		IsRevoked:         cert.IsRevoked,
		VerificationCount: cert.VerificationCount,
	}
}

type issueRequestJSON struct {
	StudentName     string `json:"studentName"`
	RollNo          string `json:"rollNo"`
	CourseName      string `json:"courseName"`
	Grade           string `json:"grade"`
	InstitutionName string `json:"institutionName"`
	StudentWallet   string `json:"studentWallet"`
	IssuedDate      string `json:"issuedDate"`
	EnableLedger    bool   `json:"enableLedger"`
}

func (r *issueRequestJSON) toCertificateData(
	issuedBy string,
) issuer.CertificateData {
	return issuer.CertificateData{
		StudentName:     r.StudentName,
		RollNo:          r.RollNo,
		CourseName:      r.CourseName,
		Grade:           r.Grade,
		InstitutionName: r.InstitutionName,
		IssuedBy:        issuedBy,
		StudentWallet:   r.StudentWallet,
		IssuedDate:      r.IssuedDate,
	}
}

type issueResponseJSON struct {
	Certificate *certificateJSON `json:"certificate"`
	LedgerProof *ledger.Proof    `json:"ledgerProof,omitempty"`
	Outcome     string           `json:"outcome"`
	Sources     issuer.Sources   `json:"sources"`
	Warning     string           `json:"warning,omitempty"`
}

func toIssueResponseJSON(result *issuer.IssueResult) *issueResponseJSON {
	return &issueResponseJSON{
		Certificate: toCertificateJSON(result.Certificate),
		LedgerProof: result.Proof,
		Outcome:     string(result.Outcome),
		Sources:     result.Sources,
		Warning:     result.Warning,
	}
}

// issueFailureJSON is the error body for a failed issuance where a ledger
// write already landed. The proof reference lets the caller force-sync the
// ledger-only record later.
type issueFailureJSON struct {
	Error         string         `json:"error"`
	CertificateId string         `json:"certificateId"`
	LedgerProof   *ledger.Proof  `json:"ledgerProof"`
	Sources       issuer.Sources `json:"sources"`
}

type issueBatchRequestJSON struct {
	Items        []issueRequestJSON `json:"items"`
	EnableLedger bool               `json:"enableLedger"`
}

type issueBatchItemJSON struct {
	Result *issueResponseJSON `json:"result,omitempty"`
	Error  string             `json:"error,omitempty"`
}

type verifyRequestJSON struct {
	CertificateId string                   `json:"certificateId"`
	Fields        verifier.ExtractedFields `json:"fields"`
}

type verifyResponseJSON struct {
	Status            string           `json:"status"`
	MatchPercentage   int              `json:"matchPercentage"`
	FieldsMatch       map[string]bool  `json:"fieldsMatch,omitempty"`
	DatabaseFields    *certificateJSON `json:"databaseFields,omitempty"`
	IsRevoked         bool             `json:"isRevoked"`
	VerificationCount uint             `json:"verificationCount"`
	Message           string           `json:"message"`
}

type revokeRequestJSON struct {
	Reason string `json:"reason"`
}

type forceSyncRequestJSON struct {
	CertificateIds []string `json:"certificateIds"`
}

type registerInstitutionJSON struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

type institutionStatusJSON struct {
	Status string `json:"status"`
}

type institutionJSON struct {
	Identity    string `json:"identity"`
	Name        string `json:"name"`
	Location    string `json:"location,omitempty"`
	Status      string `json:"status"`
	LedgerSetup bool   `json:"ledgerSetup"`
}

type errorJSON struct {
	Error string `json:"error"`
}
