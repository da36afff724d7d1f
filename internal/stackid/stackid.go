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

// Package stackid is the Go-native stand-in for the scoped debugger
// registration token the core treats as an external collaborator: Go has no
// public API to splice a foreign frame chain into its own runtime unwinder,
// so this package instead keeps a process-wide registry of live stack
// address ranges, queryable for diagnostics (DumpLiveStacks, Lookup) the way
// a debugger would otherwise walk registered unwind tables.
package stackid

import (
	"fmt"
	"io"
	"sync"

	"golang.org/x/exp/slices"
)

// ID identifies one registered stack for the lifetime of its Context.
type ID uint64

type entry struct {
	base, limit uintptr
	id          ID
}

var (
	mu      sync.RWMutex
	entries []entry // sorted by base, ascending
	nextID  ID
)

// Register records [limit, base) as a live stack range and returns the ID
// assigned to it. Callers must Unregister once the owning Context is
// dropped or retired.
func Register(base, limit uintptr) ID {
	mu.Lock()
	defer mu.Unlock()

	nextID++
	id := nextID
	e := entry{base: base, limit: limit, id: id}

	i, _ := slices.BinarySearchFunc(entries, e, func(a, b entry) int {
		switch {
		case a.base < b.base:
			return -1
		case a.base > b.base:
			return 1
		default:
			return 0
		}
	})
	entries = slices.Insert(entries, i, e)
	return id
}

// Unregister removes a previously registered range. It is a no-op if id is
// unknown (already unregistered).
func Unregister(id ID) {
	mu.Lock()
	defer mu.Unlock()

	for i, e := range entries {
		if e.id == id {
			entries = slices.Delete(entries, i, i+1)
			return
		}
	}
}

// Lookup reports which registered stack, if any, contains addr.
func Lookup(addr uintptr) (ID, bool) {
	mu.RLock()
	defer mu.RUnlock()

	i, found := slices.BinarySearchFunc(entries, addr, func(e entry, addr uintptr) int {
		switch {
		case addr >= e.base:
			return -1
		case addr < e.limit:
			return 1
		default:
			return 0
		}
	})
	if !found {
		return 0, false
	}
	return entries[i].id, true
}

// LookupBounds reports the [limit, base) bounds of whichever registered
// stack, if any, contains addr. Used to recover a Stack's extent from a
// bare address when no direct Stack reference is available, such as when
// splicing the running goroutine's stack bounds around a switch into a
// Context that was only ever seen as a StackPointer (see FromCaller).
func LookupBounds(addr uintptr) (base, limit uintptr, ok bool) {
	mu.RLock()
	defer mu.RUnlock()

	i, found := slices.BinarySearchFunc(entries, addr, func(e entry, addr uintptr) int {
		switch {
		case addr >= e.base:
			return -1
		case addr < e.limit:
			return 1
		default:
			return 0
		}
	})
	if !found {
		return 0, 0, false
	}
	return entries[i].base, entries[i].limit, true
}

// DumpLiveStacks writes a human-readable listing of every currently
// registered stack range to w, for use from a diagnostic endpoint or a
// crash handler.
func DumpLiveStacks(w io.Writer) {
	mu.RLock()
	defer mu.RUnlock()

	for _, e := range entries {
		fmt.Fprintf(w, "stack %d: [%#x, %#x)\n", e.id, e.limit, e.base)
	}
}

// Count reports the number of currently registered stacks.
func Count() int {
	mu.RLock()
	defer mu.RUnlock()
	return len(entries)
}
