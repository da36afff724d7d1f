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

package fringe

import (
	"runtime/cgo"

	"github.com/stealthrocket/fringe/internal/arch"
	"github.com/stealthrocket/fringe/internal/stackid"
)

// EntryFunc is run, exactly once, the first time its Context is swapped
// into. caller is the StackPointer execution should eventually return to
// (via Swap); arg0 and arg1 are the raw payload words sent by whoever
// performed that first switch.
//
// An EntryFunc must never return: the arch entry trampoline traps with an
// illegal instruction if it does, the same contract an init'd stack whose
// callee falls off the end of its function would violate in any native
// implementation of this primitive.
type EntryFunc func(caller StackPointer, arg0, arg1 uintptr)

// Context is a suspended (or not-yet-entered) execution: one Stack plus the
// StackPointer recording where to resume it. Exactly one of "the live CPU
// state" or "this saved StackPointer" describes its thread of execution at
// any moment.
//
// A Context is not safe for concurrent use. It may move between goroutines,
// but never be touched from two goroutines at once, and never be swapped
// into while it is itself the one running.
type Context struct {
	stack Stack
	sp    StackPointer
	id    stackid.ID

	handle  cgo.Handle
	fn      EntryFunc
	entered bool
}

func init() {
	arch.SetEntryPoint(dispatchEntry)
}

// dispatchEntry is installed once as the process-wide arch entry point. It
// recovers the *Context a freshly primed stack was built for from the
// opaque ctxPtr word Init embedded, consumes its EntryFunc (an EntryFunc
// only ever runs once), and calls it.
func dispatchEntry(ctxPtr, callerSP, arg0, arg1 uintptr) {
	c := cgo.Handle(ctxPtr).Value().(*Context)
	fn := c.fn
	c.fn = nil
	fn(StackPointer(callerSP), arg0, arg1)
}

// New registers stack with the debug stack-id registry and primes its top
// so the next Swap into the returned Context invokes fn. No switch occurs.
func New(stack Stack, fn EntryFunc) *Context {
	c := &Context{stack: stack, fn: fn}
	c.id = stackid.Register(stack.Base(), stack.Limit())
	c.handle = cgo.NewHandle(c)
	c.sp = Init(stack, uintptr(c.handle))
	return c
}

// FromCaller wraps a raw StackPointer received as the caller argument of an
// EntryFunc, or returned by Swap, into a Context that can be swapped back
// into. The result does not own a Stack: its Unwrap is not meaningful, and
// it must not be used once the suspension it names is known to be dead.
func FromCaller(sp StackPointer) *Context {
	return &Context{sp: sp, entered: true}
}

// Swap transfers control into c, sending (arg0, arg1). It returns once
// something swaps back into the point this call suspends, yielding the
// StackPointer of whoever performed that resume plus the payload they sent.
//
// As a convenience for the common strictly-alternating case, c.sp is also
// updated to that same StackPointer, so a later call to c.Swap resumes
// wherever c was last suspended. Code built on richer topologies (the
// session and cycle layers) should treat the returned StackPointer, not
// this side effect, as authoritative — see FromCaller.
func (c *Context) Swap(arg0, arg1 uintptr) (caller StackPointer, ret0, ret1 uintptr) {
	var entering Stack
	if !c.entered {
		entering = c.stack
		c.entered = true
	}
	oldSP, r0, r1 := Swap(entering, c.sp, arg0, arg1)
	c.sp = oldSP
	return oldSP, r0, r1
}

// Unwrap consumes c without running anything on its stack and returns the
// raw Stack for reuse or disposal. Callable only when c has not been
// entered, or when its callee is known (by protocol, not by this package)
// to have terminated; calling it on a still-live Context is undefined
// behavior at the level this package operates.
func (c *Context) Unwrap() Stack {
	if c.handle != 0 {
		c.handle.Delete()
	}
	stackid.Unregister(c.id)
	return c.stack
}
