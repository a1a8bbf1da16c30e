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

package database

import (
	"github.com/prometheus/client_golang/prometheus"
)

type storeMetrics struct {
	queries *prometheus.CounterVec
}

func registerStoreMetrics(registry prometheus.Registerer) *storeMetrics {
	m := &storeMetrics{
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quill_database_queries_total",
				Help: "number of canonical store operations by operation and status",
			},
			[]string{"op", "status"},
		),
	}
	registry.MustRegister(m.queries)
	return m
}
