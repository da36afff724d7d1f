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

//go:build 386

package arch

import "reflect"

// StackAlign is kept at 16 bytes even though classic cdecl i386 only
// requires 4-byte alignment, so SSE instructions remain safe to use inside
// a coroutine body (matching the alignment-invariance property this package
// is tested against on the 32-bit backend too).
const StackAlign = 16

// RedZoneSize is zero: x86 (32-bit) has no red zone.
const RedZoneSize = 0

// Init and Swap use the same internal convention as the amd64 backends
// (words carried in DI/SI/DX rather than pushed on the stack the way a real
// cdecl call would); spec's rationale for a two-stage i686 trampoline
// applies when the entry point must look like a genuine C function to
// foreign callers, which is not a constraint here since both ends of every
// switch are this package's own code.
//
//go:noescape
func Init(sp uintptr, fn uintptr, ctxPtr uintptr) uintptr

//go:noescape
func Swap(cfaSlot *uintptr, newSP uintptr, arg0, arg1 uintptr) (oldSP, ret0, ret1 uintptr)

func entryTrampoline()

func contextEntryBridge(ctxPtr, callerSP, arg0, arg1 uintptr) {
	entryPoint(ctxPtr, callerSP, arg0, arg1)
}

var entryPoint func(ctxPtr, callerSP, arg0, arg1 uintptr)

// SetEntryPoint installs the function invoked on first entry into any
// context primed by Init. See swap_amd64_sysv.go's SetEntryPoint.
func SetEntryPoint(fn func(ctxPtr, callerSP, arg0, arg1 uintptr)) {
	entryPoint = fn
}

// EntryTrampolineAddr returns the code address Init should embed as the
// resume point of a freshly primed stack.
func EntryTrampolineAddr() uintptr {
	return reflect.ValueOf(entryTrampoline).Pointer()
}
