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

//go:build windows

package stackalloc

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// windowsPageSize is the allocation granularity VirtualAlloc rounds to on
// every Windows architecture this module's asm_amd64_win.s backend
// targets. Unlike some unix targets it is architecturally fixed rather
// than configuration-dependent, so it is hardcoded instead of queried.
const windowsPageSize = 4096

// Stack is a VirtualAlloc-backed fringe.Stack. The zero value is not
// usable; build one with New.
type Stack struct {
	base       uintptr
	size       uintptr
	pageSize   int
	guardPages int
}

// New allocates a fresh OS-backed stack. The returned Stack must be freed
// with Free once its owning Context is known to be dead; failing to do so
// leaks the mapping.
func New(opts ...Option) (*Stack, error) {
	pageSize := windowsPageSize
	cfg := config{size: defaultStackSize, guardPages: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	usablePages := (cfg.size + pageSize - 1) / pageSize
	if usablePages < 1 {
		return nil, ErrTooSmall
	}
	totalPages := usablePages + 2*cfg.guardPages
	size := uintptr(totalPages * pageSize)

	base, err := windows.VirtualAlloc(0, size, windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, fmt.Errorf("stackalloc: VirtualAlloc: %w", err)
	}

	if cfg.guardPages > 0 {
		guardBytes := uintptr(cfg.guardPages * pageSize)
		var old uint32
		if err := windows.VirtualProtect(base, guardBytes, windows.PAGE_NOACCESS, &old); err != nil {
			windows.VirtualFree(base, 0, windows.MEM_RELEASE)
			return nil, fmt.Errorf("stackalloc: VirtualProtect (low guard): %w", err)
		}
		if err := windows.VirtualProtect(base+size-guardBytes, guardBytes, windows.PAGE_NOACCESS, &old); err != nil {
			windows.VirtualFree(base, 0, windows.MEM_RELEASE)
			return nil, fmt.Errorf("stackalloc: VirtualProtect (high guard): %w", err)
		}
	}

	return &Stack{base: base, size: size, pageSize: pageSize, guardPages: cfg.guardPages}, nil
}

func (s *Stack) usableStart() uintptr {
	return s.base + uintptr(s.guardPages*s.pageSize)
}

func (s *Stack) usableEnd() uintptr {
	return s.base + s.size - uintptr(s.guardPages*s.pageSize)
}

// Base returns the highest in-bounds address of the stack.
func (s *Stack) Base() uintptr { return s.usableEnd() }

// Top returns Base rounded down to a 16-byte boundary, the alignment every
// supported architecture's backend requires of a freshly primed stack.
func (s *Stack) Top() uintptr { return s.usableEnd() &^ 15 }

// Limit returns the lowest in-bounds address of the stack.
func (s *Stack) Limit() uintptr { return s.usableStart() }

// Free releases the stack's backing memory, guard pages included. It must
// only be called once the owning Context has been retired.
func (s *Stack) Free() error {
	if s.base == 0 {
		return nil
	}
	err := windows.VirtualFree(s.base, 0, windows.MEM_RELEASE)
	s.base = 0
	return err
}
