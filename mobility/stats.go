/*
Copyright (c) The ltemobility Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package mobility

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stats holds the per-run Dispatcher counters, registered against their own
// prometheus.Registry rather than the global default so that a process
// running several Dispatchers (the CLI's --jobs multi-file mode) can expose
// each one independently, or combine them under distinct metric paths.
type Stats struct {
	registry *prometheus.Registry

	Reports        *prometheus.CounterVec
	Warnings       *prometheus.CounterVec
	DuplicateLines prometheus.Counter
	FilteredLines  prometheus.Counter
}

// NewStats builds a Stats with all counters registered.
func NewStats() *Stats {
	registry := prometheus.NewRegistry()

	s := &Stats{
		registry: registry,
		Reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ltemobility_reports_total",
			Help: "Mobility reports emitted, by label.",
		}, []string{"label"}),
		Warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ltemobility_warnings_total",
			Help: "Protocol anomaly warnings emitted, by parser.",
		}, []string{"parser"}),
		DuplicateLines: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ltemobility_duplicate_lines_total",
			Help: "Raw trace lines suppressed as immediate duplicates.",
		}),
		FilteredLines: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ltemobility_filtered_lines_total",
			Help: "Decoded events skipped by the --filter expression.",
		}),
	}

	registry.MustRegister(s.Reports, s.Warnings, s.DuplicateLines, s.FilteredLines)
	return s
}

// Handler returns the http.Handler serving this Stats registry's /metrics
// page, modeled on ptp/sptp/stats's promhttp.HandlerFor usage.
func (s *Stats) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ReportCounts returns a snapshot of reports as a label -> count map, used by
// the CLI's summary subcommand, which needs in-process totals rather than a
// Prometheus scrape. Pass a non-nil map to accumulate across several runs.
func ReportCounts(counts map[string]int, reports []Report) map[string]int {
	if counts == nil {
		counts = make(map[string]int)
	}
	for _, r := range reports {
		counts[r.Label]++
	}
	return counts
}
