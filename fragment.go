package main

import "strings"

// Fragment is the text generated for one node. Stmt fragments are complete,
// terminated statements; expression fragments can be embedded in other code.
type Fragment struct {
	Code string
	Stmt bool
}

func exprFrag(code string) Fragment { return Fragment{Code: code} }
func stmtFrag(code string) Fragment { return Fragment{Code: code, Stmt: true} }

// CallExpr is a call to a support-library or compiled function. Arguments
// are already-rendered expressions.
type CallExpr struct {
	Callee string
	Args   []string
}

func call(callee string, args ...string) CallExpr {
	return CallExpr{Callee: callee, Args: args}
}

func (c CallExpr) String() string {
	return c.Callee + "(" + strings.Join(c.Args, ", ") + ")"
}

// indentLines prefixes every non-empty line with prefix.
func indentLines(lines []string, prefix string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		if line == "" {
			continue
		}
		out[i] = prefix + line
	}
	return out
}
