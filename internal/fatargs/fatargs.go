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

// Package fatargs marshals arbitrary-sized Go values through the two-word
// channel a context switch carries. Values that fit are packed directly;
// larger ones are boxed on the Go heap (there is no way to address an
// arbitrary frame of another goroutine's stack safely, so unlike the
// native version of this primitive the "sender's stack" option is not
// available here) and a pointer is sent instead.
//
// Whether a given type T is packed or boxed is a static property of T's
// size, decided identically by Pack and Unpack, so no runtime tag travels
// alongside the two words — the same discipline wzprof's memory.go uses to
// move raw WASM linear-memory bytes across an API boundary by address
// rather than by copying through an intermediate representation.
package fatargs

import "unsafe"

const channelWords = 2

// channelBytes is the number of bytes a value can occupy and still be
// packed directly into the two-word channel instead of boxed.
const channelBytes = channelWords * unsafe.Sizeof(uintptr(0))

// Pack encodes v into the two-word channel. When v is too large to pack
// directly, boxed holds the heap pointer actually carried in w0 (as a
// uintptr, so the garbage collector does not see it as a root): callers
// must call runtime.KeepAlive(boxed) only after the switch carrying w0/w1
// has completed on the other side, so the box is not collected while
// still in flight. boxed is nil when v was packed directly; KeepAlive on
// a nil interface is a harmless no-op, so callers can call it
// unconditionally.
func Pack[T any](v T) (w0, w1 uintptr, boxed any) {
	var zero T
	if unsafe.Sizeof(zero) <= channelBytes {
		var buf [channelWords]uintptr
		*(*T)(unsafe.Pointer(&buf)) = v
		return buf[0], buf[1], nil
	}
	p := new(T)
	*p = v
	return uintptr(unsafe.Pointer(p)), 0, p
}

// Unpack decodes a value of type T previously produced by Pack[T]. Calling
// it with a different T than the one used to Pack is undefined behavior.
func Unpack[T any](w0, w1 uintptr) T {
	var zero T
	if unsafe.Sizeof(zero) <= channelBytes {
		buf := [channelWords]uintptr{w0, w1}
		return *(*T)(unsafe.Pointer(&buf))
	}
	return *(*T)(unsafe.Pointer(w0))
}
