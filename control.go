package main

import (
	"strings"
)

// rootContext is the file-scope exception context used by raises outside
// any try body.
const rootContext = "_exc_root"

func (g *generator) genAssign(n *Assign) (Fragment, error) {
	target, ok := n.Target.(*Name)
	if !ok {
		return Fragment{}, compileErrorf(UnsupportedFeature, "assignment to %s", n.Target.Kind())
	}
	g.trace("Assign", target.ID)
	value, err := g.expr(n.Value)
	if err != nil {
		return Fragment{}, err
	}
	if _, declared := g.scope.Lookup(target.ID); declared {
		return stmtFrag(g.cname(target.ID) + " = " + value + ";"), nil
	}
	g.scope.Declare(target.ID, typeValue)
	name := g.bindName(target.ID)
	if g.fn == nil && g.scope.Depth() == 1 {
		g.declared = append(g.declared, name)
	}
	return stmtFrag("Value " + name + " = " + value + ";"), nil
}

// blockAssigned returns, in source order, the names whose first assignment
// in stmts happens inside a nested block. Loop targets and handler names
// stay local to their block and are not counted. Function bodies are
// separate and not walked.
func blockAssigned(stmts []Stmt) []string {
	seen := make(map[string]bool)
	var names []string
	var walk func(stmts []Stmt, nested bool)
	walk = func(stmts []Stmt, nested bool) {
		for _, s := range stmts {
			switch n := s.(type) {
			case *Assign:
				t, ok := n.Target.(*Name)
				if !ok || seen[t.ID] {
					continue
				}
				seen[t.ID] = true
				if nested {
					names = append(names, t.ID)
				}
			case *For:
				walk(n.Body, true)
			case *While:
				walk(n.Body, true)
			case *If:
				walk(n.Body, true)
				walk(n.Else, true)
			case *Try:
				walk(n.Body, true)
				for _, h := range n.Handlers {
					walk(h.Body, true)
				}
			}
		}
	}
	walk(stmts, false)
	return names
}

// declareBlockAssigned declares at the current frame every name first
// assigned inside a nested block of stmts, so that it stays visible after
// that block closes. It returns the declarations.
func (g *generator) declareBlockAssigned(stmts []Stmt) []string {
	var lines []string
	for _, id := range blockAssigned(stmts) {
		if _, ok := g.scope.Lookup(id); ok {
			continue
		}
		g.scope.Declare(id, typeValue)
		name := g.bindName(id)
		if g.fn == nil {
			g.declared = append(g.declared, name)
		}
		lines = append(lines, "Value "+name+" = "+noneSentinel+";")
	}
	return lines
}

func (g *generator) genAugAssign(n *AugAssign) (Fragment, error) {
	target, ok := n.Target.(*Name)
	if !ok {
		return Fragment{}, compileErrorf(UnsupportedFeature, "augmented assignment to %s", n.Target.Kind())
	}
	g.trace("AugAssign", target.ID+" "+n.Op)
	value, err := g.expr(&BinOp{Op: n.Op, Left: target, Right: n.Value})
	if err != nil {
		return Fragment{}, err
	}
	return stmtFrag(g.cname(target.ID) + " = " + value + ";"), nil
}

// genExprStmt terminates an expression used as a statement. Void calls are
// already statements.
func (g *generator) genExprStmt(n *ExprStmt) (Fragment, error) {
	g.trace("Expr", "Visiting expression statement")
	frag, err := g.generate(n.Value)
	if err != nil {
		return Fragment{}, err
	}
	if frag.Stmt {
		return frag, nil
	}
	return stmtFrag(frag.Code + ";"), nil
}

func (g *generator) genReturn(n *Return) (Fragment, error) {
	g.trace("Return", "Visiting return statement")
	if g.fn == nil {
		return Fragment{}, compileErrorf(UnsupportedConstruct, "return outside function")
	}
	if n.Value == nil {
		return stmtFrag("return " + noneSentinel + ";"), nil
	}
	value, err := g.expr(n.Value)
	if err != nil {
		return Fragment{}, err
	}
	return stmtFrag("return " + value + ";"), nil
}

// genFor evaluates the iterable once into a temporary, then counts through
// its items. The loop variable is declared fresh in every iteration.
func (g *generator) genFor(n *For) (Fragment, error) {
	target, ok := n.Target.(*Name)
	if !ok {
		return Fragment{}, compileErrorf(UnsupportedFeature, "for-loop target %s", n.Target.Kind())
	}
	g.trace("For", target.ID)
	if kind := nonListIterable(n.Iter); kind != "" {
		return Fragment{}, compileErrorf(UnsupportedFeature, "iteration over %s; only list, tuple and range values can be iterated", kind)
	}
	iter, err := g.expr(n.Iter)
	if err != nil {
		return Fragment{}, err
	}
	iterName := g.temps.hoist("_iter_", BeforeStatement, func(name string) string {
		return "Value " + name + " = " + iter + ";"
	})
	idx := g.c.names.next("_i_")

	g.loops++
	body, err := g.compileNested(n.Body, true, func() []string {
		g.scope.Declare(target.ID, typeValue)
		return []string{"Value " + g.bindName(target.ID) + " = " + iterName + ".list_val.items[" + idx + "];"}
	})
	g.loops--
	if err != nil {
		return Fragment{}, err
	}

	header := "for (int " + idx + " = 0; " + idx + " < " + iterName + ".list_val.count; " + idx + "++) {"
	return stmtFrag(block(header, body, "}")), nil
}

// nonListIterable names the kind of an iterable whose items are not laid out
// as a list. Only literals are recognized; anything else is assumed to be a
// list at run time.
func nonListIterable(e Expr) string {
	switch n := e.(type) {
	case *Dict:
		return "dict"
	case *JoinedStr:
		return "str"
	case *Constant:
		switch n.Const {
		case ConstString:
			return "str"
		case ConstNone:
			return "None"
		case ConstBool:
			return "bool"
		case ConstFloat:
			return "float"
		default:
			return "int"
		}
	}
	return ""
}

// genWhile re-evaluates the condition before every iteration. A condition
// that needs temporaries is tested inside the loop so they are rebuilt
// each time.
func (g *generator) genWhile(n *While) (Fragment, error) {
	g.trace("While", "Visiting while loop")
	g.temps.beginStatement()
	g.nested++
	cond, err := g.expr(n.Cond)
	g.nested--
	condTemps := g.temps.endStatement()
	if err != nil {
		return Fragment{}, err
	}

	g.loops++
	var prologue func() []string
	if len(condTemps) > 0 {
		prologue = func() []string {
			var lines []string
			for _, t := range condTemps {
				lines = append(lines, t.Decl)
			}
			return append(lines, "if (!"+truthy(cond)+") break;")
		}
	}
	body, err := g.compileNested(n.Body, true, prologue)
	g.loops--
	if err != nil {
		return Fragment{}, err
	}

	if prologue != nil {
		return stmtFrag(block("while (1) {", body, "}")), nil
	}
	return stmtFrag(block("while ("+truthy(cond)+") {", body, "}")), nil
}

func (g *generator) genIf(n *If) (Fragment, error) {
	g.trace("If", "Visiting if statement")
	cond, err := g.expr(n.Cond)
	if err != nil {
		return Fragment{}, err
	}
	body, err := g.compileNested(n.Body, false, nil)
	if err != nil {
		return Fragment{}, err
	}
	if len(n.Else) == 0 {
		return stmtFrag(block("if ("+truthy(cond)+") {", body, "}")), nil
	}
	orelse, err := g.compileNested(n.Else, false, nil)
	if err != nil {
		return Fragment{}, err
	}
	lines := append([]string{"if (" + truthy(cond) + ") {"}, body...)
	lines = append(lines, "} else {")
	lines = append(lines, orelse...)
	lines = append(lines, "}")
	return stmtFrag(strings.Join(lines, "\n")), nil
}

func (g *generator) genBreak(*Break) (Fragment, error) {
	g.trace("Break", "Visiting break")
	if g.loops == 0 {
		return Fragment{}, compileErrorf(UnsupportedConstruct, "break outside loop")
	}
	return stmtFrag("break;"), nil
}

func (g *generator) genContinue(*Continue) (Fragment, error) {
	g.trace("Continue", "Visiting continue")
	if g.loops == 0 {
		return Fragment{}, compileErrorf(UnsupportedConstruct, "continue outside loop")
	}
	return stmtFrag("continue;"), nil
}

// currentContext is the exception context a raise at this point reports to.
func (g *generator) currentContext() string {
	if len(g.tries) > 0 {
		return g.tries[len(g.tries)-1]
	}
	return "&" + rootContext
}

func (g *generator) useExceptions() {
	g.c.exceptions = true
	g.c.includes.add("exc.c")
}

// genTry lowers try/except onto the support library's TRY/CATCH/END_TRY
// macros. Except clauses become an if/else-if cascade over the caught
// exception, tested in source order.
func (g *generator) genTry(n *Try) (Fragment, error) {
	g.trace("Try", "Visiting try statement")
	g.useExceptions()
	ctx := g.temps.hoist("_ctx_", BeforeStatement, func(name string) string {
		return "TryCatchContext " + name + " = {0};"
	})
	exc := g.temps.hoist("_exc_", BeforeStatement, func(name string) string {
		return "TryCatchContext *" + name + " = NULL;"
	})
	ctxRef := "&" + ctx

	g.tries = append(g.tries, ctxRef)
	body, err := g.compileNested(n.Body, true, nil)
	g.tries = g.tries[:len(g.tries)-1]
	if err != nil {
		return Fragment{}, err
	}

	lines := []string{"TRY(" + ctxRef + ")"}
	lines = append(lines, body...)
	lines = append(lines, "CATCH("+ctxRef+", "+exc+")")

	cascade, err := g.handlerCascade(n.Handlers, exc)
	if err != nil {
		return Fragment{}, err
	}
	lines = append(lines, indentLines(cascade, g.indent)...)
	lines = append(lines, "END_TRY("+ctxRef+");")
	return stmtFrag(strings.Join(lines, "\n")), nil
}

func (g *generator) handlerCascade(handlers []ExceptHandler, exc string) ([]string, error) {
	var lines []string
	exhaustive := false
	for i, h := range handlers {
		var test string
		if h.Type != nil {
			t, err := g.exceptionTest(h.Type, exc)
			if err != nil {
				return nil, err
			}
			test = t
		}

		switch {
		case i == 0 && test == "":
			lines = append(lines, "if (1) {")
		case i == 0:
			lines = append(lines, "if ("+test+") {")
		case test == "":
			lines = append(lines, "} else {")
		default:
			lines = append(lines, "} else if ("+test+") {")
		}

		g.handlers = append(g.handlers, exc)
		body, err := g.compileNested(h.Body, true, func() []string {
			if h.Name == "" {
				return nil
			}
			g.scope.Declare(h.Name, typeValue)
			return []string{"Value " + g.bindName(h.Name) + " = " + call("make_value_from_exc", exc).String() + ";"}
		})
		g.handlers = g.handlers[:len(g.handlers)-1]
		if err != nil {
			return nil, err
		}
		lines = append(lines, body...)

		if test == "" {
			// A bare except catches everything; later clauses are unreachable.
			exhaustive = true
			break
		}
	}
	if len(lines) == 0 {
		return nil, nil
	}
	if !exhaustive && g.c.opts.ReraiseUnmatched {
		lines = append(lines, "} else {")
		lines = append(lines, g.indent+g.reraise(exc))
	}
	return append(lines, "}"), nil
}

func (g *generator) exceptionTest(typ Expr, exc string) (string, error) {
	switch t := typ.(type) {
	case *Name:
		return call("exc_isinstance", exc, cString(t.ID)).String(), nil
	case *Tuple:
		var tests []string
		for _, elt := range t.Elts {
			test, err := g.exceptionTest(elt, exc)
			if err != nil {
				return "", err
			}
			tests = append(tests, test)
		}
		return strings.Join(tests, " || "), nil
	default:
		return "", compileErrorf(UnsupportedFeature, "except clause type %s", typ.Kind())
	}
}

// reraise forwards the caught exception's message to the enclosing context.
func (g *generator) reraise(exc string) string {
	return call("raise_exception", g.currentContext(), cString("Exception"), exc+"->stderr_buf").String() + ";"
}

func (g *generator) genRaise(n *Raise) (Fragment, error) {
	g.trace("Raise", "Visiting raise statement")
	g.useExceptions()
	if n.Exc == nil {
		if len(g.handlers) == 0 {
			return Fragment{}, compileErrorf(UnsupportedConstruct, "bare raise outside except clause")
		}
		return stmtFrag(g.reraise(g.handlers[len(g.handlers)-1])), nil
	}

	var typeName string
	message := cString("")
	switch e := n.Exc.(type) {
	case *Name:
		typeName = e.ID
	case *Call:
		callee, ok := e.Func.(*Name)
		if !ok {
			return Fragment{}, compileErrorf(UnsupportedFeature, "raise of %s", e.Func.Kind())
		}
		typeName = callee.ID
		if len(e.Args) > 1 || len(e.Keywords) > 0 {
			return Fragment{}, compileErrorf(UnsupportedFeature, "exception %s constructed with more than a message", typeName)
		}
		if len(e.Args) == 1 {
			if s, ok := e.Args[0].(*Constant); ok && s.Const == ConstString {
				message = cString(s.Str)
			} else {
				code, err := g.expr(e.Args[0])
				if err != nil {
					return Fragment{}, err
				}
				message = call("to_string", code).String() + ".string_val"
			}
		}
	default:
		return Fragment{}, compileErrorf(UnsupportedFeature, "raise of %s", n.Exc.Kind())
	}
	return stmtFrag(call("raise_exception", g.currentContext(), cString(typeName), message).String() + ";"), nil
}

func (g *generator) genAssert(n *Assert) (Fragment, error) {
	g.trace("Assert", "Visiting assert statement")
	g.c.includes.add("ops.c")
	test, err := g.expr(n.Test)
	if err != nil {
		return Fragment{}, err
	}
	msg := noneSentinel
	if n.Msg != nil {
		msg, err = g.expr(n.Msg)
		if err != nil {
			return Fragment{}, err
		}
	}
	return stmtFrag(call("assert", test, msg).String() + ";"), nil
}

// block joins a header, already-indented body lines and a footer.
func block(header string, body []string, footer string) string {
	lines := make([]string, 0, len(body)+2)
	lines = append(lines, header)
	lines = append(lines, body...)
	lines = append(lines, footer)
	return strings.Join(lines, "\n")
}
