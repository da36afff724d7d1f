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

// Callee4 is the callee-side handle a C4 body receives; phases rotate
// A -> B -> C -> D -> A. The period (4) is even, so as with Callee2 this
// callee only ever visits half the rotation across its own successive
// turns (B, then D, then B again): the other two phases belong to the
// caller's own successive turns.
type Callee4[A, B, C, D any] struct {
	caller *fringe.Context
	phase  int // 0:A 1:B 2:C 3:D due next
}

func (c *Callee4[A, B, C, D]) checkPhase(want int, name string) {
	if c.phase != want {
		panic("cycle: " + name + " called out of turn")
	}
}

func (c *Callee4[A, B, C, D]) SwapA(a A) B {
	c.checkPhase(0, "SwapA")
	callerSP, b := exchange[A, B](c.caller, a)
	c.caller, c.phase = fringe.FromCaller(callerSP), (c.phase+2)%4
	return b
}

func (c *Callee4[A, B, C, D]) SwapB(b B) C {
	c.checkPhase(1, "SwapB")
	callerSP, v := exchange[B, C](c.caller, b)
	c.caller, c.phase = fringe.FromCaller(callerSP), (c.phase+2)%4
	return v
}

func (c *Callee4[A, B, C, D]) SwapC(v C) D {
	c.checkPhase(2, "SwapC")
	callerSP, d := exchange[C, D](c.caller, v)
	c.caller, c.phase = fringe.FromCaller(callerSP), (c.phase+2)%4
	return d
}

func (c *Callee4[A, B, C, D]) SwapD(d D) A {
	c.checkPhase(3, "SwapD")
	callerSP, a := exchange[D, A](c.caller, d)
	c.caller, c.phase = fringe.FromCaller(callerSP), (c.phase+2)%4
	return a
}

func (c *Callee4[A, B, C, D]) KontinueA(a A) { c.checkPhase(0, "KontinueA"); send(c.caller, a, true) }
func (c *Callee4[A, B, C, D]) KontinueB(b B) { c.checkPhase(1, "KontinueB"); send(c.caller, b, true) }
func (c *Callee4[A, B, C, D]) KontinueC(v C) { c.checkPhase(2, "KontinueC"); send(c.caller, v, true) }
func (c *Callee4[A, B, C, D]) KontinueD(d D) { c.checkPhase(3, "KontinueD"); send(c.caller, d, true) }

// C4 is a period-4 cycle: swaps carry A, B, C, D in rotation.
type C4[A, B, C, D any] struct {
	ctx   *fringe.Context
	phase int
	done  bool
}

// NewC4 primes a C4 on stack; the first switch into it must be SwapA.
func NewC4[A, B, C, D any](stack fringe.Stack, body func(callee *Callee4[A, B, C, D], arg A)) *C4[A, B, C, D] {
	c := &C4[A, B, C, D]{}
	c.ctx = fringe.New(stack, func(callerSP fringe.StackPointer, a0, a1 uintptr) {
		arg := unpackArg[A](a0, a1)
		body(&Callee4[A, B, C, D]{caller: fringe.FromCaller(callerSP), phase: 1}, arg)
	})
	return c
}

func (c *C4[A, B, C, D]) SwapA(a A) (next B, ok bool) {
	if c.done {
		var zero B
		return zero, false
	}
	if c.phase != 0 {
		panic("cycle: SwapA called out of turn")
	}
	c.phase = (c.phase + 2) % 4
	return swapPhase[A, B](c.ctx, &c.done, a)
}

func (c *C4[A, B, C, D]) SwapB(b B) (next C, ok bool) {
	if c.done {
		var zero C
		return zero, false
	}
	if c.phase != 1 {
		panic("cycle: SwapB called out of turn")
	}
	c.phase = (c.phase + 2) % 4
	return swapPhase[B, C](c.ctx, &c.done, b)
}

func (c *C4[A, B, C, D]) SwapC(v C) (next D, ok bool) {
	if c.done {
		var zero D
		return zero, false
	}
	if c.phase != 2 {
		panic("cycle: SwapC called out of turn")
	}
	c.phase = (c.phase + 2) % 4
	return swapPhase[C, D](c.ctx, &c.done, v)
}

func (c *C4[A, B, C, D]) SwapD(d D) (next A, ok bool) {
	if c.done {
		var zero A
		return zero, false
	}
	if c.phase != 3 {
		panic("cycle: SwapD called out of turn")
	}
	c.phase = (c.phase + 2) % 4
	return swapPhase[D, A](c.ctx, &c.done, d)
}
