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
	"runtime"

	"github.com/stealthrocket/fringe/internal/fatargs"
)

// envelope is what actually crosses the raw Context.Swap channel: the
// typed value plus an optional pointer to the sender's thread-locals
// block. TL is nil when the sender is the native OS thread, or chooses not
// to share one.
type envelope[T, TL any] struct {
	value T
	tl    *TL
}

// Caller is the callee-side view of whoever most recently switched into a
// Session, rebuilt from the raw (StackPointer, payload) pair a switch
// arrives with (FromCaller for the StackPointer, fatargs.Unpack for the
// payload).
type Caller[Arg, Ret, TL any] struct {
	ctx *Context
}

// Switch sends ret back to the party c represents, resuming it, and
// returns the next argument and thread-locals pointer it switches back
// with.
func (c *Caller[Arg, Ret, TL]) Switch(ret Ret, tl *TL) (Arg, *TL) {
	a0, a1, boxed := fatargs.Pack(envelope[Ret, TL]{value: ret, tl: tl})
	callerSP, r0, r1 := c.ctx.Swap(a0, a1)
	runtime.KeepAlive(boxed)
	c.ctx = FromCaller(callerSP)
	env := fatargs.Unpack[envelope[Arg, TL]](r0, r1)
	return env.value, env.tl
}

// Session wraps a raw Context with typed argument marshalling: Arg is the type sent on every switch into the session, Ret
// is the type sent back, and TL is an optional thread-locals block type
// shared by reference across a switch rather than copied through the
// payload channel.
type Session[Arg, Ret, TL any] struct {
	ctx *Context
}

// NewSession creates a session Context on stack. body runs, exactly once,
// the first time the session is switched into; caller is the callee-side
// view of whoever switched in, and arg/tl are the first values they sent.
func NewSession[Arg, Ret, TL any](stack Stack, body func(caller *Caller[Arg, Ret, TL], arg Arg, tl *TL)) *Session[Arg, Ret, TL] {
	s := &Session[Arg, Ret, TL]{}
	s.ctx = New(stack, func(callerSP StackPointer, a0, a1 uintptr) {
		env := fatargs.Unpack[envelope[Arg, TL]](a0, a1)
		caller := &Caller[Arg, Ret, TL]{ctx: FromCaller(callerSP)}
		body(caller, env.value, env.tl)
	})
	return s
}

// Switch sends arg (and optionally a pointer to the calling side's
// thread-locals block, valid only while this call is blocked) into the
// session, and returns whatever it next switches back with.
func (s *Session[Arg, Ret, TL]) Switch(arg Arg, tl *TL) (Ret, *TL) {
	a0, a1, boxed := fatargs.Pack(envelope[Arg, TL]{value: arg, tl: tl})
	_, r0, r1 := s.ctx.Swap(a0, a1)
	runtime.KeepAlive(boxed)
	env := fatargs.Unpack[envelope[Ret, TL]](r0, r1)
	return env.value, env.tl
}

// Unwrap retires the session's underlying Context; see Context.Unwrap for
// the same liveness caveat.
func (s *Session[Arg, Ret, TL]) Unwrap() Stack {
	return s.ctx.Unwrap()
}
