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

// Package stackalloc provides an OS-backed fringe.Stack implementation:
// each stack is a private anonymous mapping obtained straight from the
// host (golang.org/x/sys/unix's mmap/mprotect, or golang.org/x/sys/windows's
// VirtualAlloc/VirtualProtect), optionally bordered by no-access guard
// pages so a coroutine body that overflows its stack faults immediately
// rather than silently corrupting whatever mapping happens to follow it in
// the address space.
//
// New and the Stack type it returns are implemented per GOOS (see
// stackalloc_unix.go and stackalloc_windows.go); this file holds the
// configuration surface shared by both.
package stackalloc

import "errors"

// ErrTooSmall is returned by New when the requested size rounds up to no
// whole page, that is, when it is zero or negative. Guard pages are mapped
// in addition to the requested size, never taken out of it.
var ErrTooSmall = errors.New("stackalloc: stack size too small")

const defaultStackSize = 256 * 1024

// Option configures a Stack built by New.
type Option func(*config)

type config struct {
	size       int
	guardPages int
}

// WithStackSize sets the usable stack size in bytes. It is rounded up to
// the next whole page. Defaults to 256KiB.
func WithStackSize(n int) Option {
	return func(c *config) { c.size = n }
}

// WithGuardPages sets the number of no-access pages mapped on either side
// of the usable stack region. Defaults to 1. Zero disables guard pages
// entirely, so running off either end of the stack is no longer caught by
// a fault.
func WithGuardPages(n int) Option {
	return func(c *config) { c.guardPages = n }
}
