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

//go:build amd64

package fringe_test

import (
	"math"
	"testing"

	"github.com/stealthrocket/fringe"
)

// floatChurn runs a few iterations of floating-point arithmetic that a
// compiler is likely to keep live in XMM registers, returning a value that
// depends on all of them so the computation cannot be optimized away.
func floatChurn(seed float64) float64 {
	a, b, c, d := seed, seed*1.5, seed*2.25, seed*3.125
	for i := 0; i < 8; i++ {
		a = math.Sqrt(a*a + 1)
		b = math.Sin(b) * math.Cos(b)
		c = math.Log(c + 1)
		d = math.Hypot(d, a)
	}
	return a + b + c + d
}

// TestSwapPreservesCallerFloatState checks that ordinary floating-point
// computation on the calling goroutine survives a Context.Swap unchanged,
// the register-clobbering contract Swap documents (it saves/restores only
// what its own assembly needs, not the caller's XMM state, so this only
// holds because the Go compiler never trusts a register to survive an
// opaque call and reloads everything it needs from memory afterward).
func TestSwapPreservesCallerFloatState(t *testing.T) {
	stack := newTestStack(t)

	ctx := fringe.New(stack, func(c fringe.StackPointer, arg0, arg1 uintptr) {
		caller := fringe.FromCaller(c)
		for {
			// Perform unrelated floating-point work on the callee side
			// between switches, maximizing the chance that a broken
			// Swap would clobber the caller's live XMM state.
			_ = floatChurn(float64(arg0))
			_, arg0, arg1 = caller.Swap(arg0, arg1)
		}
	})

	for i := 1; i <= 20; i++ {
		want := floatChurn(float64(i))
		got := floatChurn(float64(i))
		if got != want {
			t.Fatalf("floatChurn(%d) is non-deterministic even without a swap: %v != %v", i, got, want)
		}

		before := floatChurn(float64(i) * 7)
		ctx.Swap(uintptr(i), 0)
		after := floatChurn(float64(i) * 7)
		if after != before {
			t.Fatalf("iteration %d: floating-point state corrupted across Swap: before=%v after=%v", i, before, after)
		}
	}
}
