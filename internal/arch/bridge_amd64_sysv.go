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

import "reflect"

// entryTrampoline is the fixed code address Init embeds as the resume point
// of every freshly primed stack. It has no Go body: it is defined in
// asm_amd64_sysv.s, reads back the context pointer Init stored alongside it,
// and calls contextEntryBridge with the Go calling convention.
func entryTrampoline()

// contextEntryBridge is called from entryTrampoline on the first switch into
// a freshly Init-ed stack. It is an ordinary Go function (the compiler
// generates the ABI0 wrapper that lets assembly call it by symbol), so it is
// free to call back into arbitrary Go code, including code that allocates or
// panics.
//
// ctxPtr is the opaque pointer Context.New asked Init to embed; callerSP is
// the suspended SP of the stack that performed this first switch; arg0/arg1
// are the payload words of that switch.
func contextEntryBridge(ctxPtr, callerSP, arg0, arg1 uintptr) {
	entryPoint(ctxPtr, callerSP, arg0, arg1)
}

var entryPoint func(ctxPtr, callerSP, arg0, arg1 uintptr)

// SetEntryPoint installs the function invoked on first entry into any
// context primed by Init. It must be called exactly once, before any call to
// Init, typically from an init() in the package that owns the Context type.
func SetEntryPoint(fn func(ctxPtr, callerSP, arg0, arg1 uintptr)) {
	entryPoint = fn
}

// EntryTrampolineAddr returns the code address Init should embed as the
// resume point of a freshly primed stack.
func EntryTrampolineAddr() uintptr {
	return reflect.ValueOf(entryTrampoline).Pointer()
}
