//  Copyright 2023 Stealth Rocket, Inc.
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

// Package switchstats records per-switch latency and renders it as a
// pprof profile, the same profile.Profile construction wzprof uses for its
// CPU and memory profiles, with a single synthetic location standing in
// for "a context switch" since there is no call stack to symbolize here.
package switchstats

import (
	"sync"
	"time"

	"github.com/google/pprof/profile"
)

// Recorder accumulates the latency of individual switches. The zero value
// is not usable; build one with NewRecorder.
type Recorder struct {
	mu        sync.Mutex
	durations []int64
	start     time.Time
}

// NewRecorder creates a Recorder whose profile's duration starts counting
// from now.
func NewRecorder() *Recorder {
	return &Recorder{start: time.Now()}
}

// Record adds one observed switch latency.
func (r *Recorder) Record(d time.Duration) {
	r.mu.Lock()
	r.durations = append(r.durations, int64(d))
	r.mu.Unlock()
}

// Count reports how many latencies have been recorded so far.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.durations)
}

// Profile builds a pprof profile.Profile with one sample per recorded
// switch, each carrying a "switches" count of 1 and a "switch_latency"
// value in nanoseconds.
func (r *Recorder) Profile() *profile.Profile {
	r.mu.Lock()
	durations := append([]int64(nil), r.durations...)
	r.mu.Unlock()

	fn := &profile.Function{ID: 1, Name: "fringe.Context.Swap", SystemName: "fringe.Context.Swap"}
	loc := &profile.Location{ID: 1, Line: []profile.Line{{Function: fn}}}

	prof := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "switches", Unit: "count"},
			{Type: "switch_latency", Unit: "nanoseconds"},
		},
		Function:      []*profile.Function{fn},
		Location:      []*profile.Location{loc},
		Sample:        make([]*profile.Sample, 0, len(durations)),
		TimeNanos:     r.start.UnixNano(),
		DurationNanos: int64(time.Since(r.start)),
		PeriodType:    &profile.ValueType{Type: "switch_latency", Unit: "nanoseconds"},
		Period:        1,
	}
	for _, d := range durations {
		prof.Sample = append(prof.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{1, d},
		})
	}
	return prof
}
