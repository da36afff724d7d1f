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

//go:build amd64 && !windows

package arch

// StackAlign is the alignment x86_64 SysV requires of RSP at the instant a
// function is entered by CALL (8 mod 16 at the point execution starts, i.e.
// RSP itself is 16-aligned at the CALL instruction).
const StackAlign = 16

// RedZoneSize is the SysV x86_64 red zone: 128 bytes below RSP a leaf
// function may use without adjusting RSP. Swap must not clobber it.
const RedZoneSize = 128

// Init lays down a synthetic call frame at the top of a fresh stack (sp)
// such that the next Swap into it jumps to fn, with ctxPtr left in the word
// at fn's entry SP (Init stores it next to the resume address; it never
// dereferences it). fn is entered by a jump, not a call: the caller's SP
// arrives in DI and the payload words in SI and DX. The fn this module
// passes is entryTrampoline, which hands all four words to Go and traps
// with an illegal instruction if that call ever returns.
//
// Init returns the stack-pointer value to record as the context's saved SP.
//
//go:noescape
func Init(sp uintptr, fn uintptr, ctxPtr uintptr) uintptr

// Swap transfers control from the current stack to the stack resumed at
// newSP, passing arg0/arg1 in the SysV argument registers RSI and RDX, with
// the resume SP in RDI, so the Init trampoline can consume all three as
// plain function arguments.
//
// If cfaSlot is non-nil, the current SP is written to *cfaSlot before the
// switch (this is the first swap into a freshly Init-ed stack: the callee's
// CFI chains its CFA to that slot so an unwinder crossing the switch
// boundary sees this call site as its parent frame). cfaSlot is nil when
// resuming an already-started stack.
//
// Swap clobbers every caller-saved register, including the vector
// registers, and returns the SP at which the other side later swaps back,
// along with the two-word payload it sends.
//
//go:noescape
func Swap(cfaSlot *uintptr, newSP uintptr, arg0, arg1 uintptr) (oldSP, ret0, ret1 uintptr)
