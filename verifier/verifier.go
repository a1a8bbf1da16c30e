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

// Package verifier scores an untrusted extracted field set against a
// canonical certificate record and classifies the result as authentic,
// altered, or fake. The certificate id is the lookup key, not an
// authenticity signal, so it is excluded from the comparison set.
package verifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/openquill/quill/database"
	"github.com/openquill/quill/database/models"
	"github.com/openquill/quill/event"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultAlteredThreshold is the minimum match percentage at which a
// mismatching certificate is classified as altered rather than fake. This
// is a policy knob, overridable via WithThreshold.
const DefaultAlteredThreshold = 80

// Status is the trust classification of a verification attempt.
type Status string

const (
	StatusAuthentic Status = "authentic"
	StatusAltered   Status = "altered"
	StatusFake      Status = "fake"
)

// comparedFields is the number of fields scored against the canonical
// record: studentName, rollNo, courseName, grade, institutionName,
// issuedDate.
const comparedFields = 6

// internalIdPattern matches store-assigned internal ids. The canonical
// store uses numeric primary keys, so an all-digit input that fails both
// business key lookups is retried as an internal id.
var internalIdPattern = regexp.MustCompile(`^[0-9]+$`)

// ExtractedFields is the fixed schema produced by the field extraction
// collaborator. IssuedDate is pre-normalized to YYYY-MM-DD upstream, or
// empty.
type ExtractedFields struct {
	StudentName     string `json:"studentName"`
	RollNo          string `json:"rollNo"`
	CourseName      string `json:"courseName"`
	Grade           string `json:"grade"`
	CertificateID   string `json:"certificateId"`
	InstitutionName string `json:"institutionName"`
	IssuedDate      string `json:"issuedDate"`
}

// Result is the outcome of a verification attempt.
type Result struct {
	Status            Status
	MatchPercentage   int
	FieldsMatch       map[string]bool
	DatabaseFields    *models.Certificate
	IsRevoked         bool
	VerificationCount uint
	Message           string
}

// VerifierConfig is the configuration for creating a Verifier.
type VerifierConfig struct {
	Database     *database.Database
	EventBus     *event.EventBus
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
}

// VerifierOption is a functional option for configuring a Verifier.
type VerifierOption func(*Verifier)

// WithThreshold overrides the altered/fake classification threshold,
// expressed as a percentage.
func WithThreshold(threshold int) VerifierOption {
	return func(v *Verifier) {
		if threshold > 0 && threshold <= 100 {
			v.threshold = threshold
		}
	}
}

// Verifier is the authenticity verifier.
type Verifier struct {
	db        *database.Database
	eventBus  *event.EventBus
	logger    *slog.Logger
	metrics   *verifierMetrics
	threshold int
}

// New creates a Verifier from the given config.
func New(cfg VerifierConfig, opts ...VerifierOption) *Verifier {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	v := &Verifier{
		db:        cfg.Database,
		eventBus:  cfg.EventBus,
		logger:    logger.With("component", "verifier"),
		threshold: DefaultAlteredThreshold,
	}
	for _, opt := range opts {
		opt(v)
	}
	if cfg.PromRegistry != nil {
		v.metrics = registerVerifierMetrics(cfg.PromRegistry)
	}
	return v
}

// resolve looks up the canonical record for the given id: exact business
// key match first, then case-insensitive, then internal id when the input
// looks like one.
func (v *Verifier) resolve(
	ctx context.Context,
	certificateId string,
) (*models.Certificate, error) {
	cert, err := v.db.CertificateByCertificateID(ctx, certificateId)
	if err == nil {
		return cert, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}
	cert, err = v.db.CertificateByCertificateIDFold(ctx, certificateId)
	if err == nil {
		return cert, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}
	if internalIdPattern.MatchString(certificateId) {
		id, convErr := strconv.ParseUint(certificateId, 10, 64)
		if convErr == nil {
			return v.db.CertificateByID(ctx, uint(id))
		}
	}
	return nil, database.ErrNotFound
}

// Verify resolves the certificate id, scores the extracted fields against
// the canonical record, and classifies the attempt. The verification
// counter is incremented on every attempt that resolves to a record,
// including attempts against revoked records; an unresolved id increments
// nothing.
func (v *Verifier) Verify(
	ctx context.Context,
	certificateId string,
	fields ExtractedFields,
) (*Result, error) {
	cert, err := v.resolve(ctx, certificateId)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			result := &Result{
				Status:  StatusFake,
				Message: "no matching certificate record found",
			}
			v.observe(result.Status)
			return result, nil
		}
		return nil, err
	}

	fieldsMatch, matchPct := v.score(cert, fields)

	if cert.IsRevoked {
		// Revocation overrides authenticity regardless of field match
		count, err := v.db.IncrementVerificationCount(ctx, cert.ID)
		if err != nil {
			return nil, err
		}
		cert.VerificationCount = count
		message := "certificate has been revoked by the issuer"
		if cert.RevokedReason != "" {
			message = fmt.Sprintf(
				"certificate has been revoked by the issuer: %s",
				cert.RevokedReason,
			)
		}
		result := &Result{
			Status:            StatusFake,
			MatchPercentage:   matchPct,
			FieldsMatch:       fieldsMatch,
			DatabaseFields:    cert,
			IsRevoked:         true,
			VerificationCount: count,
			Message:           message,
		}
		v.finish(cert, result)
		return result, nil
	}

	var status Status
	var message string
	switch {
	case matchPct == 100:
		status = StatusAuthentic
		message = "all certificate fields match the canonical record"
	case matchPct >= v.threshold:
		status = StatusAltered
		message = fmt.Sprintf(
			"certificate resolves to a known record but only %d%% of fields match",
			matchPct,
		)
	default:
		status = StatusFake
		message = fmt.Sprintf(
			"certificate fields match the canonical record at only %d%%",
			matchPct,
		)
	}
	count, err := v.db.IncrementVerificationCount(ctx, cert.ID)
	if err != nil {
		return nil, err
	}
	cert.VerificationCount = count
	result := &Result{
		Status:            status,
		MatchPercentage:   matchPct,
		FieldsMatch:       fieldsMatch,
		DatabaseFields:    cert,
		VerificationCount: count,
		Message:           message,
	}
	v.finish(cert, result)
	return result, nil
}

// score compares the six scored fields and returns the per-field match map
// and the rounded match percentage.
func (v *Verifier) score(
	cert *models.Certificate,
	fields ExtractedFields,
) (map[string]bool, int) {
	fieldsMatch := map[string]bool{
		"studentName":     normalizedEqual(fields.StudentName, cert.StudentName),
		"rollNo":          normalizedEqual(fields.RollNo, cert.RollNo),
		"courseName":      normalizedEqual(fields.CourseName, cert.CourseName),
		"grade":           normalizedEqual(fields.Grade, cert.Grade),
		"institutionName": normalizedEqual(fields.InstitutionName, cert.InstitutionName),
		// Dates are canonicalized to YYYY-MM-DD upstream, so no case folding
		"issuedDate": fields.IssuedDate == cert.IssuedDate,
	}
	matching := 0
	for _, ok := range fieldsMatch {
		if ok {
			matching++
		}
	}
	matchPct := int(
		math.Round(float64(matching) / float64(comparedFields) * 100),
	)
	return fieldsMatch, matchPct
}

// normalizedEqual compares two free-text fields after trimming surrounding
// whitespace and case folding.
func normalizedEqual(a, b string) bool {
	return strings.EqualFold(
		strings.TrimSpace(a),
		strings.TrimSpace(b),
	)
}

func (v *Verifier) finish(cert *models.Certificate, result *Result) {
	v.observe(result.Status)
	v.logger.Info(
		"certificate verified",
		"certificateId", cert.CertificateID,
		"status", string(result.Status),
		"matchPercentage", result.MatchPercentage,
	)
	if v.eventBus != nil {
		v.eventBus.Publish(
			event.CertificateVerifiedEventType,
			event.NewEvent(
				event.CertificateVerifiedEventType,
				event.CertificateVerifiedEvent{
					CertificateID:   cert.CertificateID,
					Status:          string(result.Status),
					MatchPercentage: result.MatchPercentage,
				},
			),
		)
	}
}

func (v *Verifier) observe(status Status) {
	if v.metrics == nil {
		return
	}
	v.metrics.verifications.WithLabelValues(string(status)).Inc()
}
