// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fib

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"
)

// stats holds the counters of one run in its own metrics.Set, so concurrent
// or repeated runs never share series.
//
// Only retries are counted on the hot path; totals are added once per side.
type stats struct {
	set     *metrics.Set
	pushed  *metrics.Counter
	pulled  *metrics.Counter
	full    *metrics.Counter
	empty   *metrics.Counter
	nsPerOp float64
}

func newStats(mode Mode, capacity int) *stats {
	s := &stats{set: metrics.NewSet()}
	labels := fmt.Sprintf(`{mode=%q,capacity="%d"}`, mode, capacity)
	s.pushed = s.set.NewCounter("spsc_pushed_total" + labels)
	s.pulled = s.set.NewCounter("spsc_pulled_total" + labels)
	s.full = s.set.NewCounter("spsc_push_full_total" + labels)
	s.empty = s.set.NewCounter("spsc_pull_empty_total" + labels)
	s.set.NewGauge("spsc_ns_per_op"+labels, func() float64 { return s.nsPerOp })
	return s
}
