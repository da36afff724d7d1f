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

// Package fringe implements a cooperative, single-threaded stack-switching
// primitive: independent stacks of execution that transfer control between
// each other symmetrically, without involving the OS thread scheduler.
//
// A Context wraps one Stack and the StackPointer at which it is currently
// suspended. New primes a fresh stack so that the next Swap into it
// runs a user-supplied function; Context.Swap performs the symmetric
// transfer, exchanging a two-word payload with the other side.
//
// The session and cycle layers build typed protocols on top of the raw
// Context: session.go attaches typed arguments and an optional thread-locals
// block to a switch, and the cycle subpackage expresses a statically typed
// N-periodic handshake (C1..C4) directly on the raw Context.
//
// None of this package is safe for concurrent use by multiple goroutines: a
// Context may move between goroutines (it has no internal state tied to a
// particular OS thread) but must never be touched by two goroutines at once,
// and exactly one Context is ever "live" on a given goroutine at a time.
package fringe
