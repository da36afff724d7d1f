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

// Package cycle expresses a statically typed N-periodic handshake on top
// of a raw fringe.Context: each swap consumes an argument of whichever type
// is due this period and returns either the next period's value (the peer
// yielded) or a terminal value tagged done (the peer will not be resumed
// again).
//
// The type of the next argument rotates through a fixed list, matching
// spec's Cycle<Arg, Next> family. Go generics can express a fixed-size
// rotation directly, so each arity gets its own concrete type: C1 for a
// period-1 cycle (the same type every swap), up through C4 for a
// period-4 rotation.
package cycle

import (
	"fmt"
	"runtime"

	"github.com/stealthrocket/fringe"
	"github.com/stealthrocket/fringe/internal/fatargs"
)

// slot is the envelope that actually crosses the raw Context.Swap channel
// for every phase of every Cn type: the typed value plus the terminated
// tag that realizes Option<Next>::None.
type slot[T any] struct {
	value T
	done  bool
}

// send is the callee-side primitive shared by Callee3's and Callee4's
// KontinueX methods: pack v with the given done tag and swap into whoever
// is suspended at ctx. If the callee is ever resumed, the reply is unpacked
// as the same type T; every KontinueX caller discards it.
func send[T any](ctx *fringe.Context, v T, done bool) (fringe.StackPointer, T) {
	a0, a1, boxed := fatargs.Pack(slot[T]{value: v, done: done})
	callerSP, r0, r1 := ctx.Swap(a0, a1)
	runtime.KeepAlive(boxed)
	return callerSP, fatargs.Unpack[slot[T]](r0, r1).value
}

// exchange is the callee-side primitive shared by every Calleen.SwapX
// method: pack v of the phase's outgoing type, swap into whoever is
// suspended at ctx, and unpack the reply as the next phase's type.
func exchange[Send, Recv any](ctx *fringe.Context, v Send) (fringe.StackPointer, Recv) {
	a0, a1, boxed := fatargs.Pack(slot[Send]{value: v})
	callerSP, r0, r1 := ctx.Swap(a0, a1)
	runtime.KeepAlive(boxed)
	return callerSP, fatargs.Unpack[slot[Recv]](r0, r1).value
}

// unpackArg reads the first argument of a freshly entered Cn's body out of
// the raw payload an EntryFunc receives.
func unpackArg[T any](a0, a1 uintptr) T {
	return fatargs.Unpack[slot[T]](a0, a1).value
}

// swapPhase is the caller-side primitive shared by every Cn.SwapX method:
// pack v, swap into the cycle's Context, unpack the reply, and fold its
// done tag into *done.
func swapPhase[Send, Recv any](ctx *fringe.Context, done *bool, v Send) (Recv, bool) {
	a0, a1, boxed := fatargs.Pack(slot[Send]{value: v})
	_, r0, r1 := ctx.Swap(a0, a1)
	runtime.KeepAlive(boxed)
	s := fatargs.Unpack[slot[Recv]](r0, r1)
	if s.done {
		*done = true
	}
	return s.value, !s.done
}

// --- C1: period-1 cycle, same type A every swap ---------------------------

// Callee1 is the callee-side handle a C1 body receives.
type Callee1[A any] struct {
	caller *fringe.Context
}

// Swap sends arg back to whoever resumed this callee and blocks until
// resumed again, returning the next value sent.
func (c *Callee1[A]) Swap(arg A) A {
	a0, a1, boxed := fatargs.Pack(slot[A]{value: arg})
	callerSP, r0, r1 := c.caller.Swap(a0, a1)
	runtime.KeepAlive(boxed)
	c.caller = fringe.FromCaller(callerSP)
	return fatargs.Unpack[slot[A]](r0, r1).value
}

// Kontinue is the terminal switch: it sends arg and promises this callee
// will not be resumed again. A caller that ignores that promise and swaps
// in anyway gets undefined behavior, the same as resuming any other
// terminated coroutine.
func (c *Callee1[A]) Kontinue(arg A) {
	a0, a1, boxed := fatargs.Pack(slot[A]{value: arg, done: true})
	c.caller.Swap(a0, a1)
	runtime.KeepAlive(boxed)
}

// C1 is a period-1 cycle.
type C1[A any] struct {
	ctx  *fringe.Context
	done bool
}

// NewC1 primes a C1 on stack. body runs on the first Swap into it.
func NewC1[A any](stack fringe.Stack, body func(callee *Callee1[A], arg A)) *C1[A] {
	c := &C1[A]{}
	c.ctx = fringe.New(stack, func(callerSP fringe.StackPointer, a0, a1 uintptr) {
		s := fatargs.Unpack[slot[A]](a0, a1)
		body(&Callee1[A]{caller: fringe.FromCaller(callerSP)}, s.value)
	})
	return c
}

// Swap sends arg into the cycle. ok is false once the peer has sent its
// terminal value; no further Swap calls are valid after that.
func (c *C1[A]) Swap(arg A) (next A, ok bool) {
	if c.done {
		var zero A
		return zero, false
	}
	a0, a1, boxed := fatargs.Pack(slot[A]{value: arg})
	_, r0, r1 := c.ctx.Swap(a0, a1)
	runtime.KeepAlive(boxed)
	s := fatargs.Unpack[slot[A]](r0, r1)
	if s.done {
		c.done = true
	}
	return s.value, !s.done
}

// --- C2: period-2 cycle, A then B then A then B... -------------------------

// Callee2 is the callee-side handle a C2 body receives. Exactly one of
// SwapA/SwapB is valid on any given turn, matching whichever type the
// callee last received; calling the wrong one panics rather than
// misinterpreting the wire bytes.
type Callee2[A, B any] struct {
	caller *fringe.Context
	phase  int // 0: next call must be SwapA, 1: must be SwapB
}

func (c *Callee2[A, B]) checkPhase(want int, name string) {
	if c.phase != want {
		panic(fmt.Sprintf("cycle: %s called out of turn", name))
	}
}

// SwapA sends a and blocks until resumed with the next B. Since a C2 has
// exactly two parties and a period of 2, every one of the callee's own
// turns lands on the same phase as its last: SwapA is only ever reachable
// here if an external caller resumes this callee's SwapB-in-progress with
// its own SwapB (see C2.SwapB), which does not happen in the two-party
// usage NewC2 assumes. It exists for symmetry with Callee3/Callee4, where
// an odd period does rotate a single party through every phase.
func (c *Callee2[A, B]) SwapA(a A) B {
	c.checkPhase(0, "SwapA")
	callerSP, b := exchange[A, B](c.caller, a)
	c.caller, c.phase = fringe.FromCaller(callerSP), (c.phase+2)%2
	return b
}

// SwapB sends b and blocks until resumed with the next A. This is the
// callee's steady-state call in the two-party usage NewC2 assumes: the
// external caller always owns the A-due turns (C2.SwapA) and this callee
// always owns the B-due turns.
func (c *Callee2[A, B]) SwapB(b B) A {
	c.checkPhase(1, "SwapB")
	callerSP, a := exchange[B, A](c.caller, b)
	c.caller, c.phase = fringe.FromCaller(callerSP), (c.phase+2)%2
	return a
}

// KontinueA sends a as the terminal value when it is A's turn.
func (c *Callee2[A, B]) KontinueA(a A) {
	c.checkPhase(0, "KontinueA")
	a0, a1, boxed := fatargs.Pack(slot[A]{value: a, done: true})
	c.caller.Swap(a0, a1)
	runtime.KeepAlive(boxed)
}

// KontinueB sends b as the terminal value when it is B's turn.
func (c *Callee2[A, B]) KontinueB(b B) {
	c.checkPhase(1, "KontinueB")
	a0, a1, boxed := fatargs.Pack(slot[B]{value: b, done: true})
	c.caller.Swap(a0, a1)
	runtime.KeepAlive(boxed)
}

// C2 is a period-2 cycle: the caller's turns carry A, the callee's B.
type C2[A, B any] struct {
	ctx   *fringe.Context
	phase int
	done  bool
}

// NewC2 primes a C2 on stack; the first switch into it must be SwapA.
func NewC2[A, B any](stack fringe.Stack, body func(callee *Callee2[A, B], arg A)) *C2[A, B] {
	c := &C2[A, B]{}
	c.ctx = fringe.New(stack, func(callerSP fringe.StackPointer, a0, a1 uintptr) {
		s := fatargs.Unpack[slot[A]](a0, a1)
		body(&Callee2[A, B]{caller: fringe.FromCaller(callerSP), phase: 1}, s.value)
	})
	return c
}

// SwapA sends a and returns the next B, or ok == false if that B is the
// peer's terminal value. With exactly two parties alternating every
// physical switch, a period-2 cycle's A-due turns all belong to whichever
// side made the first switch: this is the repeatable call the external
// caller uses, turn after turn, in the two-party usage NewC2 assumes.
func (c *C2[A, B]) SwapA(a A) (next B, ok bool) {
	if c.done {
		var zero B
		return zero, false
	}
	if c.phase != 0 {
		panic("cycle: SwapA called out of turn")
	}
	c.phase = (c.phase + 2) % 2
	return swapPhase[A, B](c.ctx, &c.done, a)
}

// SwapB sends b and returns the next A, or ok == false if that A is the
// peer's terminal value. Symmetric counterpart of SwapA; see Callee2.SwapA
// for why this is unreachable in the two-party usage NewC2 assumes.
func (c *C2[A, B]) SwapB(b B) (next A, ok bool) {
	if c.done {
		var zero A
		return zero, false
	}
	if c.phase != 1 {
		panic("cycle: SwapB called out of turn")
	}
	c.phase = (c.phase + 2) % 2
	return swapPhase[B, A](c.ctx, &c.done, b)
}
