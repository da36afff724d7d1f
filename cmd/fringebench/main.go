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

// Command fringebench measures context-switch throughput: it primes a set
// of stacks with a trivial ping-pong body, switches into them in a timed
// loop, and reports switches per second. With -pprof it also records
// per-switch latency and writes it out as a pprof profile.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/stealthrocket/fringe/cycle"
	"github.com/stealthrocket/fringe/internal/switchstats"
	"github.com/stealthrocket/fringe/stackalloc"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var (
	coroutines = pflag.IntP("coroutines", "n", 8, "number of coroutines to switch between")
	duration   = pflag.DurationP("duration", "d", time.Second, "how long to run the benchmark")
	stackSize  = pflag.Int("stack-size", 256*1024, "stack size in bytes for each coroutine")
	guardPages = pflag.Int("guard-pages", 1, "guard pages on either side of each stack")
	pprofPath  = pflag.String("pprof", "", "file to write a per-switch latency profile to")
)

func run() error {
	pflag.Parse()

	if *coroutines < 1 {
		return fmt.Errorf("-coroutines must be at least 1")
	}

	var rec *switchstats.Recorder
	if *pprofPath != "" {
		rec = switchstats.NewRecorder()
	}

	coros := make([]*cycle.C1[int], *coroutines)
	for i := range coros {
		i := i
		stack, err := stackalloc.New(
			stackalloc.WithStackSize(*stackSize),
			stackalloc.WithGuardPages(*guardPages),
		)
		if err != nil {
			return fmt.Errorf("allocating stack %d: %w", i, err)
		}
		coros[i] = cycle.NewC1[int](stack, func(callee *cycle.Callee1[int], arg int) {
			for {
				arg = callee.Swap(arg + 1)
			}
		})
	}

	start := time.Now()
	deadline := start.Add(*duration)
	var switches int64
	for i := 0; time.Now().Before(deadline); i++ {
		c := coros[i%len(coros)]
		switchStart := time.Now()
		_, ok := c.Swap(i)
		if rec != nil {
			rec.Record(time.Since(switchStart))
		}
		if !ok {
			return fmt.Errorf("coroutine %d terminated unexpectedly", i%len(coros))
		}
		switches++
	}

	elapsed := time.Since(start)
	fmt.Printf("%d switches in %s (%.0f switches/sec)\n", switches, elapsed, float64(switches)/elapsed.Seconds())

	if rec != nil {
		f, err := os.Create(*pprofPath)
		if err != nil {
			return fmt.Errorf("creating profile file: %w", err)
		}
		defer f.Close()
		if err := rec.Profile().Write(f); err != nil {
			return fmt.Errorf("writing profile: %w", err)
		}
	}

	return nil
}
