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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultGatewayTimeout is the default timeout for ledger gateway calls.
// Ledger confirmation latency is structurally higher and more variable than
// canonical store latency, so this is deliberately generous and distinct
// from any database timeout.
const DefaultGatewayTimeout = 45 * time.Second

// maxResponseBytes limits JSON API responses to 1 MiB to prevent OOM from a
// malicious or misconfigured gateway.
const maxResponseBytes = 1 << 20

// GatewayClient talks JSON over HTTP to a ledger signing gateway. The
// gateway holds the signing key for server-initiated ledger writes; this is
// a distinct trust boundary from interactive wallet signing, which never
// goes through this client.
type GatewayClient struct {
	gatewayURL string
	httpClient *http.Client
}

// GatewayOption is a functional option for configuring a GatewayClient.
type GatewayOption func(*GatewayClient)

// WithHTTPClient sets a custom *http.Client for the gateway client.
func WithHTTPClient(hc *http.Client) GatewayOption {
	return func(c *GatewayClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout overrides the gateway call timeout.
func WithTimeout(timeout time.Duration) GatewayOption {
	return func(c *GatewayClient) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewGatewayClient creates a new ledger gateway API client.
func NewGatewayClient(
	gatewayURL string,
	opts ...GatewayOption,
) *GatewayClient {
	c := &GatewayClient{
		gatewayURL: strings.TrimRight(gatewayURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultGatewayTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HasInstitution reports whether the issuer identity has a registered
// institution on the ledger. Corresponds to GET /v1/institutions/{identity}.
func (c *GatewayClient) HasInstitution(
	ctx context.Context,
	identity string,
) (bool, error) {
	reqURL := c.gatewayURL + "/v1/institutions/" + url.PathEscape(identity)
	body, err := c.do(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("checking institution %s: %w", identity, err)
	}
	body.Close()
	return true, nil
}

// SetupInstitution performs the one-time institution setup transaction.
// Corresponds to POST /v1/institutions.
func (c *GatewayClient) SetupInstitution(
	ctx context.Context,
	identity string,
	name string,
	location string,
) error {
	payload := map[string]string{
		"identity": identity,
		"name":     name,
		"location": location,
	}
	reqURL := c.gatewayURL + "/v1/institutions"
	body, err := c.do(ctx, http.MethodPost, reqURL, payload)
	if err != nil {
		return fmt.Errorf("setting up institution %s: %w", identity, err)
	}
	body.Close()
	return nil
}

// IssueCertificate submits a certificate transaction signed by the issuer
// identity. Corresponds to POST /v1/certificates.
func (c *GatewayClient) IssueCertificate(
	ctx context.Context,
	identity string,
	req IssueRequest,
) (*Proof, error) {
	payload := struct {
		Issuer string `json:"issuer"`
		IssueRequest
	}{
		Issuer:       identity,
		IssueRequest: req,
	}
	reqURL := c.gatewayURL + "/v1/certificates"
	body, err := c.do(ctx, http.MethodPost, reqURL, payload)
	if err != nil {
		return nil, fmt.Errorf(
			"issuing certificate %s: %w",
			req.CertificateID,
			err,
		)
	}
	defer body.Close()

	var proof Proof
	if err := json.NewDecoder(body).Decode(&proof); err != nil {
		return nil, fmt.Errorf(
			"decoding proof for %s: %w",
			req.CertificateID,
			err,
		)
	}
	if proof.Signature == "" {
		return nil, fmt.Errorf(
			"%w: gateway returned empty transaction reference",
			ErrRejected,
		)
	}
	return &proof, nil
}

// GetCertificate fetches a single ledger record by certificate id.
// Corresponds to GET /v1/certificates/{id}.
func (c *GatewayClient) GetCertificate(
	ctx context.Context,
	certificateId string,
) (*Record, error) {
	reqURL := c.gatewayURL + "/v1/certificates/" +
		url.PathEscape(certificateId)
	body, err := c.do(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf(
			"getting ledger record %s: %w",
			certificateId,
			err,
		)
	}
	defer body.Close()

	var record Record
	if err := json.NewDecoder(body).Decode(&record); err != nil {
		return nil, fmt.Errorf(
			"decoding ledger record %s: %w",
			certificateId,
			err,
		)
	}
	return &record, nil
}

// ListByIssuer enumerates all ledger records for the issuer identity.
// Corresponds to GET /v1/issuers/{identity}/certificates.
func (c *GatewayClient) ListByIssuer(
	ctx context.Context,
	identity string,
) ([]Record, error) {
	reqURL := c.gatewayURL + "/v1/issuers/" + url.PathEscape(identity) +
		"/certificates"
	body, err := c.do(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("listing ledger records: %w", err)
	}
	defer body.Close()

	var records []Record
	if err := json.NewDecoder(body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding ledger record list: %w", err)
	}
	return records, nil
}

// BatchIssue submits multiple certificate transactions, returning one result
// per input item. A failed item never aborts the rest of the batch.
func (c *GatewayClient) BatchIssue(
	ctx context.Context,
	identity string,
	reqs []IssueRequest,
) []BatchItemResult {
	results := make([]BatchItemResult, 0, len(reqs))
	for _, req := range reqs {
		proof, err := c.IssueCertificate(ctx, identity, req)
		results = append(results, BatchItemResult{
			CertificateID: req.CertificateID,
			Proof:         proof,
			Err:           err,
		})
	}
	return results
}

// do performs an HTTP request and returns the response body. The caller is
// responsible for closing the returned ReadCloser. HTTP status codes are
// mapped onto the ledger error taxonomy: 404 to ErrNotFound, other 4xx to
// ErrRejected, 5xx and transport failures to ErrUnavailable.
func (c *GatewayClient) do(
	ctx context.Context,
	method string,
	reqURL string,
	payload any,
) (io.ReadCloser, error) {
	var reqBody io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp == nil || resp.Body == nil {
		return nil, fmt.Errorf("%w: nil response from gateway", ErrUnavailable)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		bodyBytes, _ := io.ReadAll(
			io.LimitReader(resp.Body, 1024),
		)
		reason := strings.TrimSpace(string(bodyBytes))
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrNotFound
		case resp.StatusCode < 500:
			return nil, fmt.Errorf(
				"%w: status %d: %s",
				ErrRejected,
				resp.StatusCode,
				reason,
			)
		default:
			return nil, fmt.Errorf(
				"%w: status %d: %s",
				ErrUnavailable,
				resp.StatusCode,
				reason,
			)
		}
	}

	return &limitedReadCloser{
		Reader: io.LimitReader(resp.Body, maxResponseBytes),
		Closer: resp.Body,
	}, nil
}

// limitedReadCloser wraps a size-limited Reader with the underlying
// connection's Closer.
type limitedReadCloser struct {
	io.Reader
	io.Closer
}
