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

package cycle_test

import (
	"fmt"
	"testing"

	"github.com/stealthrocket/fringe/cycle"
	"github.com/stealthrocket/fringe/stackalloc"
)

func newTestStack(t *testing.T) *stackalloc.Stack {
	t.Helper()
	stack, err := stackalloc.New(stackalloc.WithStackSize(64 * 1024))
	if err != nil {
		t.Fatalf("allocating stack: %v", err)
	}
	t.Cleanup(func() {
		if err := stack.Free(); err != nil {
			t.Errorf("freeing stack: %v", err)
		}
	})
	return stack
}

// TestC1Termination checks the termination-tag property: a C1 that sends
// its terminal value via Kontinue reports ok == false on the Swap that
// receives it, and the caller is expected to make no further Swap calls.
func TestC1Termination(t *testing.T) {
	stack := newTestStack(t)

	c := cycle.NewC1[int](stack, func(callee *cycle.Callee1[int], arg int) {
		doubled := callee.Swap(arg * 2)
		callee.Kontinue(doubled + 1)
	})

	next, ok := c.Swap(5)
	if !ok {
		t.Fatalf("first swap reported terminated, want a live coroutine")
	}
	if next != 10 {
		t.Fatalf("first swap returned %d, want 10", next)
	}

	final, ok := c.Swap(100)
	if ok {
		t.Fatalf("second swap reported live, want terminated")
	}
	if final != 101 {
		t.Fatalf("terminal value was %d, want 101", final)
	}
}

// TestC2Rotation checks that a period-2 cycle ping-pongs correctly across
// several round trips. With exactly two parties alternating every switch,
// a period-2 rotation degenerates to fixed roles: the external caller's
// turns are always A-due (SwapA) and this callee's turns are always B-due
// (SwapB), so the body below only ever calls SwapB.
func TestC2Rotation(t *testing.T) {
	stack := newTestStack(t)

	c := cycle.NewC2[int, string](stack, func(callee *cycle.Callee2[int, string], n int) {
		for {
			n = callee.SwapB(fmt.Sprintf("got %d", n))
		}
	})

	reply, ok := c.SwapA(3)
	if !ok {
		t.Fatalf("first SwapA reported terminated")
	}
	if reply != "got 3" {
		t.Fatalf("first SwapA returned %q, want %q", reply, "got 3")
	}

	reply, ok = c.SwapA(4)
	if !ok {
		t.Fatalf("second SwapA reported terminated")
	}
	if reply != "got 4" {
		t.Fatalf("second SwapA returned %q, want %q", reply, "got 4")
	}
}

// TestC3Rotation checks that a period-3 cycle rotates all three argument
// types correctly. Unlike C2, period 3 does not evenly divide the two
// parties' alternation, so across repeated calls the caller cycles
// through SwapA, SwapC, SwapB (and the callee, starting one phase ahead,
// through SwapB, SwapA, SwapC), touching every phase.
func TestC3Rotation(t *testing.T) {
	stack := newTestStack(t)

	c := cycle.NewC3[int, string, bool](stack, func(callee *cycle.Callee3[int, string, bool], n int) {
		for {
			gotBool := callee.SwapB(fmt.Sprintf("n=%d", n))
			gotStr := callee.SwapA(n + 1)
			_ = gotStr
			n = callee.SwapC(gotBool)
		}
	})

	// Round 0: enters the coroutine with n=10; the body immediately calls
	// SwapB, sending "n=10" back as the reply to this very call.
	reply, ok := c.SwapA(10)
	if !ok {
		t.Fatalf("SwapA reported terminated")
	}
	if reply != "n=10" {
		t.Fatalf("SwapA returned %q, want %q", reply, "n=10")
	}

	// Wakes the body's blocked SwapB call with gotBool=true, then the
	// body's SwapA(11) call wakes this SwapC call back up with 11.
	next, ok := c.SwapC(true)
	if !ok {
		t.Fatalf("SwapC reported terminated")
	}
	if next != 11 {
		t.Fatalf("SwapC returned %d, want 11", next)
	}

	// Wakes the body's blocked SwapA call; the body then echoes gotBool
	// (true, from the SwapC(true) call above) back via SwapC.
	echoed, ok := c.SwapB("ignored")
	if !ok {
		t.Fatalf("SwapB reported terminated")
	}
	if !echoed {
		t.Fatalf("SwapB returned false, want true (echo of SwapC(true))")
	}
}

// TestC4Rotation checks a period-4 cycle. The period is even, so (as with
// C2) the caller and callee are each permanently confined to their own half
// of the rotation: the caller only ever calls SwapA/SwapC, the callee only
// ever calls SwapB/SwapD.
func TestC4Rotation(t *testing.T) {
	stack := newTestStack(t)

	c := cycle.NewC4[int, string, bool, float64](stack, func(callee *cycle.Callee4[int, string, bool, float64], n int) {
		for {
			gotBool := callee.SwapB(fmt.Sprintf("n=%d", n))
			_ = gotBool
			n = callee.SwapD(3.14)
		}
	})

	// Entering the coroutine runs its body up to the first blocked SwapB
	// call, whose outgoing string is delivered as this SwapA's reply.
	reply, ok := c.SwapA(10)
	if !ok {
		t.Fatalf("SwapA reported terminated")
	}
	if reply != "n=10" {
		t.Fatalf("SwapA returned %q, want %q", reply, "n=10")
	}

	// Wakes the blocked SwapB with true, letting the body's SwapD(3.14)
	// call run and block in turn, delivering 3.14 as this SwapC's reply.
	next, ok := c.SwapC(true)
	if !ok {
		t.Fatalf("SwapC reported terminated")
	}
	if next != 3.14 {
		t.Fatalf("SwapC returned %v, want 3.14", next)
	}

	// Wakes the blocked SwapD with 20, assigning n=20 and looping back to
	// a fresh SwapB("n=20") call whose reply comes back here.
	reply, ok = c.SwapA(20)
	if !ok {
		t.Fatalf("second SwapA reported terminated")
	}
	if reply != "n=20" {
		t.Fatalf("second SwapA returned %q, want %q", reply, "n=20")
	}
}
