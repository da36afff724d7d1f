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

package cycle

import "github.com/stealthrocket/fringe"

// Callee3 is the callee-side handle a C3 body receives; phases rotate
// A -> B -> C -> A. Unlike Callee2, the period (3) does not evenly divide
// the two physical parties' strict alternation, so across successive
// turns this single callee cycles through every phase (starting at B,
// the phase due immediately after the caller's initial A), not just one.
type Callee3[A, B, C any] struct {
	caller *fringe.Context
	phase  int // 0: SwapA next, 1: SwapB next, 2: SwapC next
}

func (c *Callee3[A, B, C]) checkPhase(want int, name string) {
	if c.phase != want {
		panic("cycle: " + name + " called out of turn")
	}
}

func (c *Callee3[A, B, C]) SwapA(a A) B {
	c.checkPhase(0, "SwapA")
	callerSP, b := exchange[A, B](c.caller, a)
	c.caller, c.phase = fringe.FromCaller(callerSP), (c.phase+2)%3
	return b
}

func (c *Callee3[A, B, C]) SwapB(b B) C {
	c.checkPhase(1, "SwapB")
	callerSP, v := exchange[B, C](c.caller, b)
	c.caller, c.phase = fringe.FromCaller(callerSP), (c.phase+2)%3
	return v
}

func (c *Callee3[A, B, C]) SwapC(v C) A {
	c.checkPhase(2, "SwapC")
	callerSP, a := exchange[C, A](c.caller, v)
	c.caller, c.phase = fringe.FromCaller(callerSP), (c.phase+2)%3
	return a
}

func (c *Callee3[A, B, C]) KontinueA(a A) {
	c.checkPhase(0, "KontinueA")
	send(c.caller, a, true)
}

func (c *Callee3[A, B, C]) KontinueB(b B) {
	c.checkPhase(1, "KontinueB")
	send(c.caller, b, true)
}

func (c *Callee3[A, B, C]) KontinueC(v C) {
	c.checkPhase(2, "KontinueC")
	send(c.caller, v, true)
}

// C3 is a period-3 cycle: swaps carry A, B, C in rotation.
type C3[A, B, C any] struct {
	ctx   *fringe.Context
	phase int
	done  bool
}

// NewC3 primes a C3 on stack; the first switch into it must be SwapA.
func NewC3[A, B, C any](stack fringe.Stack, body func(callee *Callee3[A, B, C], arg A)) *C3[A, B, C] {
	c := &C3[A, B, C]{}
	c.ctx = fringe.New(stack, func(callerSP fringe.StackPointer, a0, a1 uintptr) {
		arg := unpackArg[A](a0, a1)
		body(&Callee3[A, B, C]{caller: fringe.FromCaller(callerSP), phase: 1}, arg)
	})
	return c
}

func (c *C3[A, B, C]) SwapA(a A) (next B, ok bool) {
	if c.done {
		var zero B
		return zero, false
	}
	if c.phase != 0 {
		panic("cycle: SwapA called out of turn")
	}
	c.phase = (c.phase + 2) % 3
	return swapPhase[A, B](c.ctx, &c.done, a)
}

func (c *C3[A, B, C]) SwapB(b B) (next C, ok bool) {
	if c.done {
		var zero C
		return zero, false
	}
	if c.phase != 1 {
		panic("cycle: SwapB called out of turn")
	}
	c.phase = (c.phase + 2) % 3
	return swapPhase[B, C](c.ctx, &c.done, b)
}

func (c *C3[A, B, C]) SwapC(v C) (next A, ok bool) {
	if c.done {
		var zero A
		return zero, false
	}
	if c.phase != 2 {
		panic("cycle: SwapC called out of turn")
	}
	c.phase = (c.phase + 2) % 3
	return swapPhase[C, A](c.ctx, &c.done, v)
}
