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

package fringe_test

import (
	"runtime"
	"testing"
	"unsafe"

	"github.com/stealthrocket/fringe"
	"github.com/stealthrocket/fringe/stackalloc"
)

// TestPushAlignment checks that Push always returns an address aligned to
// the pushed type's natural alignment, regardless of the starting offset
// within a 16-byte window — the alignment-invariance property, exercised
// across every byte offset a Stack's Top() could plausibly start at.
func TestPushAlignment(t *testing.T) {
	type wide struct {
		_ [2]uint64
	}
	align := unsafe.Alignof(wide{})

	// Push writes through the address it computes, so every starting
	// offset lies inside a real heap buffer with room below it.
	buf := make([]uint64, 8)
	top := uintptr(unsafe.Pointer(&buf[0])) + 48

	for off := uintptr(0); off < 16; off++ {
		sp := fringe.StackPointer(top + off)
		got := fringe.Push(sp, wide{})
		if uintptr(got)%align != 0 {
			t.Fatalf("offset %d: Push returned address %#x, not %d-byte aligned", off, got, align)
		}
	}
	runtime.KeepAlive(buf)
}

// TestInitEntersFreshStack checks that a stack primed by Init (through New)
// can be entered and runs its entry function, for a variety of raw
// allocation sizes with no guard pages. It does not inspect the
// StackPointer value Init returns.
func TestInitEntersFreshStack(t *testing.T) {
	sizes := []int{4096, 4096 + 8, 65536, 262144}
	for _, size := range sizes {
		stack, err := stackalloc.New(stackalloc.WithStackSize(size), stackalloc.WithGuardPages(0))
		if err != nil {
			t.Fatalf("size %d: allocating stack: %v", size, err)
		}

		ran := false
		ctx := fringe.New(stack, func(c fringe.StackPointer, arg0, arg1 uintptr) {
			ran = true
			fringe.FromCaller(c).Swap(arg0, arg1)
		})
		ctx.Swap(0, 0)
		if !ran {
			t.Fatalf("size %d: entry function never ran", size)
		}

		if err := stack.Free(); err != nil {
			t.Errorf("size %d: freeing stack: %v", size, err)
		}
	}
}
