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

package event

const (
	CertificateIssuedEventType        EventType = "certificate.issued"
	CertificateRevokedEventType       EventType = "certificate.revoked"
	CertificateVerifiedEventType      EventType = "certificate.verified"
	InstitutionRegisteredEventType    EventType = "institution.registered"
	InstitutionStatusChangedEventType EventType = "institution.statuschanged"
)

// CertificateIssuedEvent is published after a certificate has been persisted
// to the canonical record store.
type CertificateIssuedEvent struct {
	CertificateID string
	Issuer        string
	OnLedger      bool
}

// CertificateRevokedEvent is published after a certificate has been revoked
// on the canonical record.
type CertificateRevokedEvent struct {
	CertificateID  string
	Reason         string
	ActingIdentity string
}

// CertificateVerifiedEvent is published after every verification attempt
// that resolved to a canonical record.
type CertificateVerifiedEvent struct {
	CertificateID   string
	Status          string
	MatchPercentage int
}

// InstitutionRegisteredEvent is published when a new institution registers.
type InstitutionRegisteredEvent struct {
	Identity string
	Name     string
}

// InstitutionStatusChangedEvent is published when an administrative action
// changes an institution's lifecycle status.
type InstitutionStatusChangedEvent struct {
	Identity string
	Status   string
}
