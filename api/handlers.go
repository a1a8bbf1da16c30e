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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openquill/quill/database"
	"github.com/openquill/quill/database/models"
	"github.com/openquill/quill/issuer"
	"github.com/openquill/quill/ledger"
	"github.com/openquill/quill/reconciler"
	"github.com/openquill/quill/registrar"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps engine errors onto HTTP statuses without leaking store
// internals for anything that isn't a caller mistake.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var validationErr issuer.ValidationError
	switch {
	case errors.As(err, &validationErr):
		s.writeJSON(w, http.StatusBadRequest, errorJSON{
			Error: validationErr.Error(),
		})
	case errors.Is(err, registrar.ErrUnauthorized),
		errors.Is(err, reconciler.ErrUnauthorized):
		s.writeJSON(w, http.StatusForbidden, errorJSON{
			Error: "caller identity is not authorized for this resource",
		})
	case errors.Is(err, registrar.ErrAlreadyRegistered):
		s.writeJSON(w, http.StatusConflict, errorJSON{
			Error: err.Error(),
		})
	case errors.Is(err, database.ErrNotFound),
		errors.Is(err, ledger.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, errorJSON{
			Error: "not found",
		})
	case errors.Is(err, ledger.ErrUnavailable),
		errors.Is(err, ledger.ErrRejected):
		s.logger.Error("ledger error", "error", err)
		s.writeJSON(w, http.StatusBadGateway, errorJSON{
			Error: "ledger unavailable",
		})
	default:
		s.logger.Error("internal error", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorJSON{
			Error: "internal error",
		})
	}
}

func (s *Server) decode(
	w http.ResponseWriter,
	r *http.Request,
	v any,
) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorJSON{
			Error: "invalid request body",
		})
		return false
	}
	return true
}

func callerIdentity(r *http.Request) string {
	return r.Header.Get(IdentityHeader)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]bool{"healthy": true})
}

func (s *Server) handleIssue(w http.ResponseWriter, r *http.Request) {
	var req issueRequestJSON
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.config.Issuer.Issue(
		r.Context(),
		req.toCertificateData(callerIdentity(r)),
		req.EnableLedger,
	)
	if err != nil {
		if result != nil && result.Proof != nil {
			// the ledger write already landed; disclose the reference so
			// the caller can force-sync later
			s.logger.Error("issuance failed after ledger write", "error", err)
			s.writeJSON(w, http.StatusInternalServerError, issueFailureJSON{
				Error:         "certificate store write failed",
				CertificateId: result.Certificate.CertificateID,
				LedgerProof:   result.Proof,
				Sources:       result.Sources,
			})
			return
		}
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toIssueResponseJSON(result))
}

func (s *Server) handleIssueBatch(w http.ResponseWriter, r *http.Request) {
	var req issueBatchRequestJSON
	if !s.decode(w, r, &req) {
		return
	}
	identity := callerIdentity(r)
	items := make([]issuer.CertificateData, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, item.toCertificateData(identity))
	}
	results := s.config.Issuer.IssueBatch(
		r.Context(),
		items,
		req.EnableLedger,
	)
	response := make([]issueBatchItemJSON, 0, len(results))
	for _, result := range results {
		item := issueBatchItemJSON{}
		if result.Err != nil {
			item.Error = result.Err.Error()
			if result.Result != nil {
				// failed item with a landed ledger write keeps its proof
				item.Result = toIssueResponseJSON(result.Result)
			}
		} else {
			item.Result = toIssueResponseJSON(result.Result)
		}
		response = append(response, item)
	}
	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	var req revokeRequestJSON
	if !s.decode(w, r, &req) {
		return
	}
	cert, err := s.config.Registrar.Revoke(
		r.Context(),
		r.PathValue("id"),
		req.Reason,
		callerIdentity(r),
	)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toCertificateJSON(cert))
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequestJSON
	if !s.decode(w, r, &req) {
		return
	}
	certificateId := req.CertificateId
	if certificateId == "" {
		certificateId = req.Fields.CertificateID
	}
	result, err := s.config.Verifier.Verify(
		r.Context(),
		certificateId,
		req.Fields,
	)
	if err != nil {
		// Verification never exposes internal store detail to an anonymous
		// caller
		s.logger.Error("verification failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorJSON{
			Error: "verification temporarily unavailable",
		})
		return
	}
	s.writeJSON(w, http.StatusOK, verifyResponseJSON{
		Status:            string(result.Status),
		MatchPercentage:   result.MatchPercentage,
		FieldsMatch:       result.FieldsMatch,
		DatabaseFields:    toCertificateJSON(result.DatabaseFields),
		IsRevoked:         result.IsRevoked,
		VerificationCount: result.VerificationCount,
		Message:           result.Message,
	})
}

func (s *Server) handleSyncReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.config.Reconciler.SyncReport(
		r.Context(),
		callerIdentity(r),
		r.PathValue("identity"),
	)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleForceSync(w http.ResponseWriter, r *http.Request) {
	var req forceSyncRequestJSON
	if !s.decode(w, r, &req) {
		return
	}
	results, err := s.config.Reconciler.ForceSync(
		r.Context(),
		callerIdentity(r),
		r.PathValue("identity"),
		req.CertificateIds,
	)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleRegisterInstitution(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req registerInstitutionJSON
	if !s.decode(w, r, &req) {
		return
	}
	inst, err := s.config.Registrar.Register(
		r.Context(),
		req.Identity,
		req.Name,
		req.Location,
	)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, institutionJSON{
		Identity:    inst.Identity,
		Name:        inst.Name,
		Location:    inst.Location,
		Status:      inst.Status,
		LedgerSetup: inst.LedgerSetup,
	})
}

func (s *Server) handleInstitutionStatus(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req institutionStatusJSON
	if !s.decode(w, r, &req) {
		return
	}
	identity := r.PathValue("identity")
	admin := callerIdentity(r)
	var err error
	switch req.Status {
	case models.InstitutionStatusVerified:
		err = s.config.Registrar.Approve(r.Context(), admin, identity)
	case models.InstitutionStatusRejected:
		err = s.config.Registrar.Reject(r.Context(), admin, identity)
	default:
		s.writeJSON(w, http.StatusBadRequest, errorJSON{
			Error: "status must be 'verified' or 'rejected'",
		})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"identity": identity,
		"status":   req.Status,
	})
}
