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

package fringe

import (
	"unsafe"

	"github.com/stealthrocket/fringe/internal/arch"
	"github.com/stealthrocket/fringe/internal/stackid"
)

// StackPointer is a raw address inside a Stack, pointing at the next
// unconsumed slot from the top. It is only ever dereferenced while its
// owning Context is suspended; the real CPU stack pointer is authoritative
// whenever that Context is running.
type StackPointer uintptr

// Push writes v at the next correctly-aligned address below sp and returns
// the StackPointer of that slot. Nothing in this package calls it; it is an
// escape hatch for callers building their own frame layouts on top of a
// Stack.
func Push[T any](sp StackPointer, v T) StackPointer {
	var zero T
	addr := uintptr(sp) - unsafe.Sizeof(zero)
	addr &^= unsafe.Alignof(zero) - 1
	*(*T)(unsafe.Pointer(addr)) = v
	return StackPointer(addr)
}

// Init primes stack so that the next Swap into the returned StackPointer
// invokes the arch entry trampoline with ctxPtr available to whatever
// EntryFunc dispatch is registered (see context.go's SetEntryPoint call in
// its init). The word at Base() - arch.WordSize is kept out of the primed
// frame: it is the CFA slot the first Swap into the stack overwrites.
func Init(stack Stack, ctxPtr uintptr) StackPointer {
	sp := arch.Init(stack.Top()-arch.WordSize, arch.EntryTrampolineAddr(), ctxPtr)
	return StackPointer(sp)
}

// Swap performs the arch-level control transfer into newSP, sending
// (arg0, arg1) and returning the triple the other side eventually sends back
// when control returns here.
//
// entering is non-nil only on the first switch into a freshly Init-ed
// stack: passing it causes the current SP to be recorded in entering's CFA
// slot (entering.Base() - arch.WordSize), so a stack unwinder crossing the
// switch boundary sees this call as the parent frame. Pass nil when
// resuming a stack that has already been entered once.
//
// Around the actual arch-level transfer, this goroutine's own stack bounds
// are spliced to the target stack's extent (see arch.SpliceStackBounds):
// without that, any non-leaf Go call running on the foreign stack this
// switch lands on — which is any ordinary EntryFunc body, since it is not
// restricted to NOSPLIT code — would have its stack-split prologue compare
// SP against bounds that don't contain it and misfire morestack. The
// splice is undone the instant this call's own Swap returns, restoring
// whatever bounds were active here before it.
func Swap(entering Stack, newSP StackPointer, arg0, arg1 uintptr) (oldSP StackPointer, ret0, ret1 uintptr) {
	var cfaSlot *uintptr
	if entering != nil {
		cfaSlot = (*uintptr)(unsafe.Pointer(entering.Base() - arch.WordSize))
	}

	lo, hi := targetBounds(entering, newSP)
	oldLo, oldHi, oldGuard0 := arch.SpliceStackBounds(lo, hi)
	o, r0, r1 := arch.Swap(cfaSlot, uintptr(newSP), arg0, arg1)
	arch.RestoreStackBounds(oldLo, oldHi, oldGuard0)

	return StackPointer(o), r0, r1
}

// targetBounds reports the [limit, base) bounds of the stack newSP lands
// on. entering, when non-nil, already names that stack directly; otherwise
// newSP is resolved through the stackid registry every Context.New
// registers its Stack with. If neither source has it (a StackPointer that
// was never registered), bounds wide enough to never trip the stack-split
// check are installed instead of guessing wrong.
func targetBounds(entering Stack, newSP StackPointer) (lo, hi uintptr) {
	if entering != nil {
		return entering.Limit(), entering.Base()
	}
	if base, limit, ok := stackid.LookupBounds(uintptr(newSP)); ok {
		return limit, base
	}
	return 0, ^uintptr(0)
}
