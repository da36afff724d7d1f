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

//go:build unix

package stackalloc

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// sliceAddr returns the address of b's backing array.
func sliceAddr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

// Stack is an mmap-backed fringe.Stack. The zero value is not usable; build
// one with New.
type Stack struct {
	mapping    []byte
	pageSize   int
	guardPages int
}

// New allocates a fresh OS-backed stack. The returned Stack must be freed
// with Free once its owning Context is known to be dead; failing to do so
// leaks the mapping.
func New(opts ...Option) (*Stack, error) {
	pageSize := unix.Getpagesize()
	cfg := config{size: defaultStackSize, guardPages: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	usablePages := (cfg.size + pageSize - 1) / pageSize
	if usablePages < 1 {
		return nil, ErrTooSmall
	}
	totalPages := usablePages + 2*cfg.guardPages
	size := totalPages * pageSize

	mapping, err := unix.Mmap(-1, 0, size, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("stackalloc: mmap: %w", err)
	}

	usableStart := cfg.guardPages * pageSize
	usableEnd := usableStart + usablePages*pageSize
	if usablePages > 0 {
		if err := unix.Mprotect(mapping[usableStart:usableEnd], unix.PROT_READ|unix.PROT_WRITE); err != nil {
			unix.Munmap(mapping)
			return nil, fmt.Errorf("stackalloc: mprotect: %w", err)
		}
	}

	return &Stack{mapping: mapping, pageSize: pageSize, guardPages: cfg.guardPages}, nil
}

func (s *Stack) usableStart() uintptr {
	return sliceAddr(s.mapping) + uintptr(s.guardPages*s.pageSize)
}

func (s *Stack) usableEnd() uintptr {
	return sliceAddr(s.mapping) + uintptr(len(s.mapping)-s.guardPages*s.pageSize)
}

// Base returns the highest in-bounds address of the stack.
func (s *Stack) Base() uintptr { return s.usableEnd() }

// Top returns Base rounded down to a 16-byte boundary, the alignment every
// supported architecture's backend requires of a freshly primed stack.
func (s *Stack) Top() uintptr { return s.usableEnd() &^ 15 }

// Limit returns the lowest in-bounds address of the stack.
func (s *Stack) Limit() uintptr { return s.usableStart() }

// Free unmaps the stack's backing memory, guard pages included. It must
// only be called once the owning Context has been retired.
func (s *Stack) Free() error {
	if s.mapping == nil {
		return nil
	}
	err := unix.Munmap(s.mapping)
	s.mapping = nil
	return err
}
