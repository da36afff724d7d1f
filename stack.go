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

// Stack is a contiguous region of memory usable as a call stack for a
// Context. Implementations are external to this package (see the stackalloc
// package for an OS-backed one); the core only ever consumes Base, Top and
// Limit.
//
// Invariant: Limit() < Top() <= Base(). Base is the highest usable address
// (one past the top of usable memory on the downward-growing stacks this
// package targets); Top is the initial stack-pointer value, Base rounded
// down to the architecture's required alignment; Limit is the lowest usable
// address.
//
// A Stack is owned by exactly one Context at a time; whoever frees the
// backing memory must do so only after the owning Context is dropped via
// Context.Unwrap or is otherwise known to be dead.
type Stack interface {
	// Base returns the highest in-bounds address of the stack.
	Base() uintptr
	// Top returns the initial stack-pointer value, Base() rounded down to
	// the architecture's stack alignment.
	Top() uintptr
	// Limit returns the lowest in-bounds address of the stack.
	Limit() uintptr
}
