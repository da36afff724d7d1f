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

package fringe_test

import (
	"testing"

	"github.com/stealthrocket/fringe"
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

// TestSwapRoundTrip exercises the round-trip payload property: every value
// sent on a Swap is observed, byte for byte, by the other side, and its
// reply is observed back here.
func TestSwapRoundTrip(t *testing.T) {
	stack := newTestStack(t)

	var seen []uintptr
	ctx := fringe.New(stack, func(c fringe.StackPointer, arg0, arg1 uintptr) {
		caller := fringe.FromCaller(c)
		for {
			seen = append(seen, arg0)
			_, arg0, arg1 = caller.Swap(arg0*2, arg1)
		}
	})

	for i, want := range []uintptr{1, 2, 3, 7} {
		_, ret0, _ := ctx.Swap(want, 0)
		if ret0 != want*2 {
			t.Fatalf("swap %d: got %d, want %d", i, ret0, want*2)
		}
	}

	if len(seen) != 4 {
		t.Fatalf("callee observed %d swaps, want 4", len(seen))
	}
	for i, want := range []uintptr{1, 2, 3, 7} {
		if seen[i] != want {
			t.Fatalf("callee saw arg0=%d at swap %d, want %d", seen[i], i, want)
		}
	}
}

// TestContextUnwrapBeforeEntry checks that a Context which has never been
// swapped into can be unwrapped back into its Stack without running
// anything on it.
func TestContextUnwrapBeforeEntry(t *testing.T) {
	stack := newTestStack(t)
	entered := false
	ctx := fringe.New(stack, func(fringe.StackPointer, uintptr, uintptr) {
		entered = true
	})

	got := ctx.Unwrap()
	if got != stack {
		t.Fatalf("Unwrap returned a different Stack than was passed to New")
	}
	if entered {
		t.Fatalf("EntryFunc ran even though the context was never swapped into")
	}
}

// TestUnwrapTrustsCallerOnLiveContext documents the "undefined behavior at
// the level this package operates" contract Unwrap's doc describes: this
// package has no way to verify a callee has terminated, so Unwrap happily
// returns the Stack of a Context that is still suspended mid-protocol
// rather than erroring out, and the registry entry it held is still
// retired. Higher layers (session, cycle) are responsible for only calling
// Unwrap once their own termination protocol confirms it is safe.
func TestUnwrapTrustsCallerOnLiveContext(t *testing.T) {
	stack := newTestStack(t)
	ctx := fringe.New(stack, func(c fringe.StackPointer, arg0, arg1 uintptr) {
		for {
			_, arg0, arg1 = fringe.FromCaller(c).Swap(arg0, arg1)
		}
	})

	// Suspend it mid-protocol: the callee is blocked inside its own Swap
	// call, nowhere near terminated.
	ctx.Swap(1, 2)

	got := ctx.Unwrap()
	if got != stack {
		t.Fatalf("Unwrap returned a different Stack than was passed to New")
	}
}

// TestPanicRecoverUnaffectedByLiveContext checks that ordinary panic/recover
// on the calling goroutine is unaffected by the existence of a live,
// suspended Context alongside it — the closest portable analogue available
// to "a stack unwinder crossing the switch boundary still reaches the
// caller's frame" without OS-specific debugger tooling.
func TestPanicRecoverUnaffectedByLiveContext(t *testing.T) {
	stack := newTestStack(t)
	ctx := fringe.New(stack, func(c fringe.StackPointer, arg0, arg1 uintptr) {
		for {
			_, arg0, arg1 = fringe.FromCaller(c).Swap(arg0, arg1)
		}
	})
	ctx.Swap(1, 2)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected a panic to be recovered")
		}
	}()
	panic("boom")
}
