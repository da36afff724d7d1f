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

//go:build amd64 && windows

package arch

import "reflect"

// StackAlign is the alignment Win64 requires of RSP at function entry,
// same numeric value as SysV but reached through a different register
// convention and no red zone.
const StackAlign = 16

// RedZoneSize is zero on Win64: there is no red zone, only the 32-byte
// shadow space a caller reserves for a callee to spill its register
// arguments into.
const RedZoneSize = 0

// ShadowSpaceSize is the fixed 32-byte area Win64 callers reserve below the
// return address for the callee's use.
const ShadowSpaceSize = 32

// Init behaves as documented in swap_amd64_sysv.go; the Win64 variant
// differs only in which registers the resumed trampoline receives its
// words in (RCX, RDX, R8 rather than RDI, RSI, RDX).
//
//go:noescape
func Init(sp uintptr, fn uintptr, ctxPtr uintptr) uintptr

// Swap behaves as documented in swap_amd64_sysv.go, using Win64's
// first-argument registers (RCX, RDX, R8) and shadow space instead of SysV's
// (RDI, RSI, RDX) and red zone.
//
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
