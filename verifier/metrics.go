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

package verifier

import (
	"github.com/prometheus/client_golang/prometheus"
)

type verifierMetrics struct {
	verifications *prometheus.CounterVec
}

func registerVerifierMetrics(registry prometheus.Registerer) *verifierMetrics {
	m := &verifierMetrics{
		verifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quill_verifications_total",
				Help: "number of verification attempts by classification",
			},
			[]string{"status"},
		),
	}
	registry.MustRegister(m.verifications)
	return m
}
