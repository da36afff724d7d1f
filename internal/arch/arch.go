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

// Package arch holds the per-architecture context-switch primitives: Init
// lays down a synthetic call frame on a fresh stack, and Swap performs the
// symmetric control transfer between two such frames.
//
// Both are inherently unsafe: they manipulate raw stack-pointer values and
// jump through them. Everything above this package (StackPointer, Context)
// exists to make them hard to misuse.
//
// Exactly one build-tag-selected backend (an assembly file plus its Go
// declarations) compiles for any given GOOS/GOARCH pair, and each backend
// defines both Init and Swap, so there is never a name collision between
// variants.
package arch

import "unsafe"

// PayloadLen is the number of machine words exchanged on every Swap. The
// canonical backends all use two, sent in each direction: together they
// carry either a packed value or, in the first word, a pointer to a boxed
// one.
const PayloadLen = 2

// Word is a single machine-word-sized value, as exchanged through the
// payload channel of Swap.
type Word = uintptr

// WordSize is the size in bytes of a Word on the target architecture.
const WordSize = unsafe.Sizeof(Word(0))

