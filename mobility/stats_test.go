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
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestReportCountsAccumulates(t *testing.T) {
	counts := ReportCounts(nil, []Report{{Label: "Handover Success"}, {Label: "Handover Success"}})
	counts = ReportCounts(counts, []Report{{Label: "Connection Setup"}})
	require.Equal(t, map[string]int{"Handover Success": 2, "Connection Setup": 1}, counts)
}

func TestStatsCountersIncrement(t *testing.T) {
	s := NewStats()
	s.Reports.WithLabelValues("Handover Success").Inc()
	s.Warnings.WithLabelValues("HSP").Inc()
	s.DuplicateLines.Inc()
	s.FilteredLines.Inc()

	require.Equal(t, float64(1), testutil.ToFloat64(s.Reports.WithLabelValues("Handover Success")))
	require.Equal(t, float64(1), testutil.ToFloat64(s.Warnings.WithLabelValues("HSP")))
	require.Equal(t, float64(1), testutil.ToFloat64(s.DuplicateLines))
	require.Equal(t, float64(1), testutil.ToFloat64(s.FilteredLines))
}
