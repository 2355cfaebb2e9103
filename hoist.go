package main

import (
	"encoding/hex"
	"strconv"

	"golang.org/x/crypto/blake2b"
)

// Placement says where a temporary's declaration is emitted.
type Placement int

const (
	// TopOfBlock defers the declaration to the top of the owning function
	// or entry-point body.
	TopOfBlock Placement = iota
	// BeforeStatement emits the declaration right before the statement
	// being compiled.
	BeforeStatement
)

func (p Placement) String() string {
	if p == TopOfBlock {
		return "top-of-block"
	}
	return "before-statement"
}

// Temp is a compiler-introduced name and its declaration.
type Temp struct {
	Name string
	Decl string
}

// nameAllocator hands out temporary names for a whole compilation. Names are
// the prefix followed by 8 hex digits of a hash of a monotonic counter.
type nameAllocator struct {
	counter uint64
	used    map[string]bool
}

func newNameAllocator() *nameAllocator {
	return &nameAllocator{used: make(map[string]bool)}
}

func (a *nameAllocator) next(prefix string) string {
	for {
		sum := blake2b.Sum256([]byte(strconv.FormatUint(a.counter, 10)))
		a.counter++
		name := prefix + hex.EncodeToString(sum[:4])
		if !a.used[name] {
			a.used[name] = true
			return name
		}
	}
}

// hoister collects temporary declarations for one generation context
// (the entry point or a single function).
type hoister struct {
	names    *nameAllocator
	deferred []Temp
	// One pool per statement currently being compiled; the innermost
	// statement owns the last pool.
	inline [][]Temp
}

func newHoister(names *nameAllocator) *hoister {
	return &hoister{names: names}
}

// hoist allocates a name and records decl(name) at the requested placement.
// BeforeStatement falls back to TopOfBlock when no statement is open.
func (h *hoister) hoist(prefix string, at Placement, decl func(name string) string) string {
	name := h.names.next(prefix)
	t := Temp{Name: name, Decl: decl(name)}
	if at == BeforeStatement && len(h.inline) > 0 {
		top := len(h.inline) - 1
		h.inline[top] = append(h.inline[top], t)
	} else {
		h.deferred = append(h.deferred, t)
	}
	return name
}

func (h *hoister) beginStatement() {
	h.inline = append(h.inline, nil)
}

// endStatement closes the innermost statement and returns the declarations
// that must precede it. The pool is discarded.
func (h *hoister) endStatement() []Temp {
	top := len(h.inline) - 1
	pool := h.inline[top]
	h.inline = h.inline[:top]
	return pool
}

// pendingInline is the number of inline declarations not yet flushed.
func (h *hoister) pendingInline() int {
	n := 0
	for _, pool := range h.inline {
		n += len(pool)
	}
	return n
}

// takeDeferred returns the deferred declarations in insertion order and
// empties the pool.
func (h *hoister) takeDeferred() []Temp {
	temps := h.deferred
	h.deferred = nil
	return temps
}
