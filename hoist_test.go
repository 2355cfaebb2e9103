package main

import (
	"regexp"
	"testing"

	"github.com/nalgeon/be"
)

var tempName = regexp.MustCompile(`^_list_items_[0-9a-f]{8}$`)

func TestNameAllocatorFormat(t *testing.T) {
	a := newNameAllocator()
	name := a.next("_list_items_")
	be.True(t, tempName.MatchString(name))
}

func TestNameAllocatorDistinct(t *testing.T) {
	a := newNameAllocator()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		name := a.next("_t_")
		be.True(t, !seen[name])
		seen[name] = true
	}
}

func TestNameAllocatorDeterministic(t *testing.T) {
	a, b := newNameAllocator(), newNameAllocator()
	for i := 0; i < 10; i++ {
		be.Equal(t, a.next("_x_"), b.next("_x_"))
	}
}

func TestHoistTopOfBlock(t *testing.T) {
	h := newHoister(newNameAllocator())
	h.beginStatement()
	name := h.hoist("_a_", TopOfBlock, func(n string) string { return "Value " + n + ";" })
	be.Equal(t, 0, len(h.endStatement()))

	deferred := h.takeDeferred()
	be.Equal(t, 1, len(deferred))
	be.Equal(t, name, deferred[0].Name)
	be.Equal(t, "Value "+name+";", deferred[0].Decl)
	be.Equal(t, 0, len(h.takeDeferred()))
}

func TestHoistBeforeStatement(t *testing.T) {
	h := newHoister(newNameAllocator())
	h.beginStatement()
	first := h.hoist("_a_", BeforeStatement, func(n string) string { return n })
	h.beginStatement()
	inner := h.hoist("_b_", BeforeStatement, func(n string) string { return n })
	be.Equal(t, 2, h.pendingInline())

	pool := h.endStatement()
	be.Equal(t, 1, len(pool))
	be.Equal(t, inner, pool[0].Name)

	pool = h.endStatement()
	be.Equal(t, 1, len(pool))
	be.Equal(t, first, pool[0].Name)
	be.Equal(t, 0, h.pendingInline())
	be.Equal(t, 0, len(h.takeDeferred()))
}

func TestHoistBeforeStatementWithoutStatement(t *testing.T) {
	h := newHoister(newNameAllocator())
	h.hoist("_a_", BeforeStatement, func(n string) string { return n })
	be.Equal(t, 1, len(h.takeDeferred()))
}

func TestPlacementString(t *testing.T) {
	be.Equal(t, "top-of-block", TopOfBlock.String())
	be.Equal(t, "before-statement", BeforeStatement.String())
}

func TestInlinePoolEmptyAfterEachStatement(t *testing.T) {
	c := newCompilation(DefaultOptions())
	g := c.newGenerator(nil)
	stmts := []Stmt{
		&Assign{Target: Ident("x"), Value: IntConst(1)},
		ExprOf(CallOf("print", Ident("x"), &List{Elts: []Expr{Ident("x")}})),
		&For{Target: Ident("i"), Iter: &List{Elts: []Expr{IntConst(1)}}, Body: []Stmt{
			ExprOf(CallOf("print", &List{Elts: []Expr{Ident("i")}})),
		}},
	}
	for _, s := range stmts {
		_, err := g.emit(s)
		be.Err(t, err, nil)
		be.Equal(t, 0, g.temps.pendingInline())
	}
}
