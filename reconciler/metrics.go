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

package reconciler

import (
	"github.com/prometheus/client_golang/prometheus"
)

type reconcilerMetrics struct {
	reports prometheus.Counter
	drift   *prometheus.GaugeVec
}

func registerReconcilerMetrics(
	registry prometheus.Registerer,
) *reconcilerMetrics {
	m := &reconcilerMetrics{
		reports: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "quill_sync_reports_total",
				Help: "number of sync reports computed",
			},
		),
		drift: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "quill_sync_drift_records",
				Help: "records present in only one store, from the last sync report",
			},
			[]string{"direction"},
		),
	}
	registry.MustRegister(m.reports, m.drift)
	return m
}
