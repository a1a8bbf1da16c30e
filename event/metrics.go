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

import (
	"github.com/prometheus/client_golang/prometheus"
)

type eventMetrics struct {
	published   *prometheus.CounterVec
	dropped     *prometheus.CounterVec
	subscribers *prometheus.GaugeVec
}

func (e *EventBus) initMetrics(registry prometheus.Registerer) {
	e.metrics = &eventMetrics{
		published: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quill_events_published_total",
				Help: "number of events published by type",
			},
			[]string{"type"},
		),
		dropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quill_events_dropped_total",
				Help: "number of events dropped due to slow subscribers by type",
			},
			[]string{"type"},
		),
		subscribers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "quill_event_subscribers",
				Help: "number of active event subscribers by type",
			},
			[]string{"type"},
		),
	}
	registry.MustRegister(
		e.metrics.published,
		e.metrics.dropped,
		e.metrics.subscribers,
	)
}
