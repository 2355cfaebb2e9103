package main

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/pytoc/pytoc/sexy"
)

// DecodeError reports malformed input to Decode.
type DecodeError struct {
	Pos sexy.Pos
	Msg string
}

func (e *DecodeError) Error() string {
	return e.Pos.String() + ": " + e.Msg
}

func decodeErrorf(n *sexy.Node, format string, args ...any) *DecodeError {
	return &DecodeError{Pos: n.Pos, Msg: fmt.Sprintf(format, args...)}
}

// ParseModule parses s-expression text into a module.
func ParseModule(input string) (*Module, error) {
	node, err := sexy.Parse(input)
	if err != nil {
		return nil, err
	}
	return Decode(node)
}

// Decode converts a (module ...) s-expression into a syntax tree.
func Decode(n *sexy.Node) (*Module, error) {
	if n.Head() != "module" {
		return nil, decodeErrorf(n, "expected (module ...), got %s", n)
	}
	body, err := decodeStmts(n.Args())
	if err != nil {
		return nil, err
	}
	return &Module{Body: body}, nil
}

func decodeStmts(nodes []*sexy.Node) ([]Stmt, error) {
	stmts := make([]Stmt, 0, len(nodes))
	for _, n := range nodes {
		s, err := decodeStmt(n)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return stmts, nil
}

// decodeBody reads a (body stmt...) list.
func decodeBody(n *sexy.Node) ([]Stmt, error) {
	if n.Head() != "body" {
		return nil, decodeErrorf(n, "expected (body ...), got %s", n)
	}
	return decodeStmts(n.Args())
}

func arity(n *sexy.Node, min, max int) error {
	got := len(n.Args())
	if got < min || (max >= 0 && got > max) {
		switch {
		case min == max:
			return decodeErrorf(n, "%s takes %d operands, got %d", n.Head(), min, got)
		case max < 0:
			return decodeErrorf(n, "%s takes at least %d operands, got %d", n.Head(), min, got)
		default:
			return decodeErrorf(n, "%s takes %d to %d operands, got %d", n.Head(), min, max, got)
		}
	}
	return nil
}

func stringAtom(n *sexy.Node) (string, error) {
	if n.Type != sexy.NodeString {
		return "", decodeErrorf(n, "expected string, got %s", n)
	}
	return n.Text, nil
}

func symbolAtom(n *sexy.Node) (string, error) {
	if n.Type != sexy.NodeSymbol {
		return "", decodeErrorf(n, "expected operator symbol, got %s", n)
	}
	return n.Text, nil
}

func decodeStmt(n *sexy.Node) (Stmt, error) {
	args := n.Args()
	switch n.Head() {
	case "assign":
		if err := arity(n, 2, 2); err != nil {
			return nil, err
		}
		target, value, err := decodeExprPair(args[0], args[1])
		if err != nil {
			return nil, err
		}
		return &Assign{Target: target, Value: value}, nil

	case "augassign":
		if err := arity(n, 3, 3); err != nil {
			return nil, err
		}
		op, err := symbolAtom(args[0])
		if err != nil {
			return nil, err
		}
		target, value, err := decodeExprPair(args[1], args[2])
		if err != nil {
			return nil, err
		}
		return &AugAssign{Op: op, Target: target, Value: value}, nil

	case "expr":
		if err := arity(n, 1, 1); err != nil {
			return nil, err
		}
		e, err := decodeExpr(args[0])
		if err != nil {
			return nil, err
		}
		return &ExprStmt{Value: e}, nil

	case "def":
		return decodeDef(n)

	case "return":
		if err := arity(n, 0, 1); err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return &Return{}, nil
		}
		e, err := decodeExpr(args[0])
		if err != nil {
			return nil, err
		}
		return &Return{Value: e}, nil

	case "for":
		if err := arity(n, 3, 3); err != nil {
			return nil, err
		}
		target, iter, err := decodeExprPair(args[0], args[1])
		if err != nil {
			return nil, err
		}
		body, err := decodeBody(args[2])
		if err != nil {
			return nil, err
		}
		return &For{Target: target, Iter: iter, Body: body}, nil

	case "while":
		if err := arity(n, 2, 2); err != nil {
			return nil, err
		}
		cond, err := decodeExpr(args[0])
		if err != nil {
			return nil, err
		}
		body, err := decodeBody(args[1])
		if err != nil {
			return nil, err
		}
		return &While{Cond: cond, Body: body}, nil

	case "if":
		if err := arity(n, 2, 3); err != nil {
			return nil, err
		}
		cond, err := decodeExpr(args[0])
		if err != nil {
			return nil, err
		}
		body, err := decodeBody(args[1])
		if err != nil {
			return nil, err
		}
		stmt := &If{Cond: cond, Body: body}
		if len(args) == 3 {
			if args[2].Head() != "else" {
				return nil, decodeErrorf(args[2], "expected (else ...), got %s", args[2])
			}
			stmt.Else, err = decodeStmts(args[2].Args())
			if err != nil {
				return nil, err
			}
		}
		return stmt, nil

	case "break", "continue", "pass":
		if err := arity(n, 0, 0); err != nil {
			return nil, err
		}
		switch n.Head() {
		case "break":
			return &Break{}, nil
		case "continue":
			return &Continue{}, nil
		default:
			return &Pass{}, nil
		}

	case "try":
		return decodeTry(n)

	case "raise":
		if err := arity(n, 0, 1); err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return &Raise{}, nil
		}
		e, err := decodeExpr(args[0])
		if err != nil {
			return nil, err
		}
		return &Raise{Exc: e}, nil

	case "assert":
		if err := arity(n, 1, 2); err != nil {
			return nil, err
		}
		test, err := decodeExpr(args[0])
		if err != nil {
			return nil, err
		}
		stmt := &Assert{Test: test}
		if len(args) == 2 {
			if stmt.Msg, err = decodeExpr(args[1]); err != nil {
				return nil, err
			}
		}
		return stmt, nil

	default:
		return nil, decodeErrorf(n, "unknown statement %s", n)
	}
}

func decodeDef(n *sexy.Node) (Stmt, error) {
	if err := arity(n, 3, 5); err != nil {
		return nil, err
	}
	args := n.Args()
	name, err := stringAtom(args[0])
	if err != nil {
		return nil, err
	}
	def := &FunctionDef{Name: name}

	if args[1].Head() != "params" {
		return nil, decodeErrorf(args[1], "expected (params ...), got %s", args[1])
	}
	for _, p := range args[1].Args() {
		param, err := decodeParam(p)
		if err != nil {
			return nil, err
		}
		def.Params = append(def.Params, param)
	}

	rest := args[2:]
	for len(rest) > 1 {
		opt := rest[0]
		if err := arity(opt, 1, 1); err != nil {
			return nil, err
		}
		s, err := stringAtom(opt.Args()[0])
		if err != nil {
			return nil, err
		}
		switch opt.Head() {
		case "vararg":
			def.VarArg = s
		case "kwarg":
			def.KwArg = s
		default:
			return nil, decodeErrorf(opt, "expected (vararg ...) or (kwarg ...), got %s", opt)
		}
		rest = rest[1:]
	}
	def.Body, err = decodeBody(rest[0])
	if err != nil {
		return nil, err
	}
	return def, nil
}

func decodeParam(n *sexy.Node) (Param, error) {
	if n.Type == sexy.NodeString {
		return Param{Name: n.Text}, nil
	}
	if n.Type != sexy.NodeList || len(n.Items) != 2 {
		return Param{}, decodeErrorf(n, "expected \"name\" or (\"name\" default), got %s", n)
	}
	name, err := stringAtom(n.Items[0])
	if err != nil {
		return Param{}, err
	}
	def, err := decodeExpr(n.Items[1])
	if err != nil {
		return Param{}, err
	}
	return Param{Name: name, Default: def}, nil
}

func decodeTry(n *sexy.Node) (Stmt, error) {
	if err := arity(n, 1, -1); err != nil {
		return nil, err
	}
	args := n.Args()
	body, err := decodeBody(args[0])
	if err != nil {
		return nil, err
	}
	stmt := &Try{Body: body}
	for _, h := range args[1:] {
		if h.Head() != "except" {
			return nil, decodeErrorf(h, "expected (except ...), got %s", h)
		}
		if err := arity(h, 1, 3); err != nil {
			return nil, err
		}
		parts := h.Args()
		var handler ExceptHandler
		for _, part := range parts[:len(parts)-1] {
			if part.Type == sexy.NodeString {
				handler.Name = part.Text
				continue
			}
			if handler.Type != nil || handler.Name != "" {
				return nil, decodeErrorf(part, "unexpected %s in except clause", part)
			}
			if handler.Type, err = decodeExpr(part); err != nil {
				return nil, err
			}
		}
		if handler.Body, err = decodeBody(parts[len(parts)-1]); err != nil {
			return nil, err
		}
		stmt.Handlers = append(stmt.Handlers, handler)
	}
	return stmt, nil
}

func decodeExprPair(a, b *sexy.Node) (Expr, Expr, error) {
	x, err := decodeExpr(a)
	if err != nil {
		return nil, nil, err
	}
	y, err := decodeExpr(b)
	if err != nil {
		return nil, nil, err
	}
	return x, y, nil
}

func decodeExprs(nodes []*sexy.Node) ([]Expr, error) {
	exprs := make([]Expr, 0, len(nodes))
	for _, n := range nodes {
		e, err := decodeExpr(n)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

func decodeExpr(n *sexy.Node) (Expr, error) {
	args := n.Args()
	switch n.Head() {
	case "name":
		if err := arity(n, 1, 1); err != nil {
			return nil, err
		}
		id, err := stringAtom(args[0])
		if err != nil {
			return nil, err
		}
		return Ident(id), nil

	case "int":
		if err := arity(n, 1, 1); err != nil {
			return nil, err
		}
		if args[0].Type != sexy.NodeInteger {
			return nil, decodeErrorf(args[0], "expected integer, got %s", args[0])
		}
		v, err := strconv.ParseInt(args[0].Text, 10, 64)
		if err != nil {
			return nil, decodeErrorf(args[0], "integer out of range: %s", args[0].Text)
		}
		return IntConst(v), nil

	case "float":
		if err := arity(n, 1, 1); err != nil {
			return nil, err
		}
		text, err := stringAtom(args[0])
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, decodeErrorf(args[0], "invalid float %q", text)
		}
		return FloatConst(v), nil

	case "str":
		if err := arity(n, 1, 1); err != nil {
			return nil, err
		}
		s, err := stringAtom(args[0])
		if err != nil {
			return nil, err
		}
		return StrConst(s), nil

	case "true", "false", "none":
		if err := arity(n, 0, 0); err != nil {
			return nil, err
		}
		switch n.Head() {
		case "true":
			return BoolConst(true), nil
		case "false":
			return BoolConst(false), nil
		default:
			return NoneConst(), nil
		}

	case "list", "tuple":
		elts, err := decodeExprs(args)
		if err != nil {
			return nil, err
		}
		if n.Head() == "list" {
			return &List{Elts: elts}, nil
		}
		return &Tuple{Elts: elts}, nil

	case "dict":
		d := &Dict{}
		for _, p := range args {
			if p.Head() != "pair" {
				return nil, decodeErrorf(p, "expected (pair key value), got %s", p)
			}
			if err := arity(p, 2, 2); err != nil {
				return nil, err
			}
			k, v, err := decodeExprPair(p.Args()[0], p.Args()[1])
			if err != nil {
				return nil, err
			}
			d.Keys = append(d.Keys, k)
			d.Values = append(d.Values, v)
		}
		return d, nil

	case "binop":
		if err := arity(n, 3, 3); err != nil {
			return nil, err
		}
		op, err := symbolAtom(args[0])
		if err != nil {
			return nil, err
		}
		l, r, err := decodeExprPair(args[1], args[2])
		if err != nil {
			return nil, err
		}
		return &BinOp{Op: op, Left: l, Right: r}, nil

	case "unary":
		if err := arity(n, 2, 2); err != nil {
			return nil, err
		}
		op, err := symbolAtom(args[0])
		if err != nil {
			return nil, err
		}
		operand, err := decodeExpr(args[1])
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: op, Operand: operand}, nil

	case "compare":
		return decodeCompare(n)

	case "call":
		return decodeCall(n)

	case "fstr":
		values := make([]Expr, 0, len(args))
		for _, part := range args {
			var v Expr
			var err error
			switch part.Head() {
			case "str":
				v, err = decodeExpr(part)
			case "fmt":
				v, err = decodeFormatted(part)
			default:
				err = decodeErrorf(part, "expected (str ...) or (fmt ...) in f-string, got %s", part)
			}
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return &JoinedStr{Values: values}, nil

	default:
		return nil, decodeErrorf(n, "unknown expression %s", n)
	}
}

// decodeCompare reads (compare Op left right [Op right]...).
func decodeCompare(n *sexy.Node) (Expr, error) {
	if err := arity(n, 3, -1); err != nil {
		return nil, err
	}
	args := n.Args()
	if len(args)%2 != 1 {
		return nil, decodeErrorf(n, "compare needs an operator before every comparator")
	}
	op, err := symbolAtom(args[0])
	if err != nil {
		return nil, err
	}
	left, first, err := decodeExprPair(args[1], args[2])
	if err != nil {
		return nil, err
	}
	c := &Compare{Left: left, Ops: []string{op}, Comparators: []Expr{first}}
	for i := 3; i < len(args); i += 2 {
		op, err := symbolAtom(args[i])
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(args[i+1])
		if err != nil {
			return nil, err
		}
		c.Ops = append(c.Ops, op)
		c.Comparators = append(c.Comparators, right)
	}
	return c, nil
}

func decodeCall(n *sexy.Node) (Expr, error) {
	if err := arity(n, 1, -1); err != nil {
		return nil, err
	}
	args := n.Args()
	fn, err := decodeExpr(args[0])
	if err != nil {
		return nil, err
	}
	c := &Call{Func: fn}
	for _, a := range args[1:] {
		switch a.Head() {
		case "kw":
			if err := arity(a, 2, 2); err != nil {
				return nil, err
			}
			name, err := stringAtom(a.Args()[0])
			if err != nil {
				return nil, err
			}
			v, err := decodeExpr(a.Args()[1])
			if err != nil {
				return nil, err
			}
			c.Keywords = append(c.Keywords, Keyword{Arg: name, Value: v})
		case "kwsplat":
			if err := arity(a, 1, 1); err != nil {
				return nil, err
			}
			v, err := decodeExpr(a.Args()[0])
			if err != nil {
				return nil, err
			}
			c.Keywords = append(c.Keywords, Keyword{Value: v})
		default:
			if len(c.Keywords) > 0 {
				return nil, decodeErrorf(a, "positional argument after keyword argument")
			}
			v, err := decodeExpr(a)
			if err != nil {
				return nil, err
			}
			c.Args = append(c.Args, v)
		}
	}
	return c, nil
}

// decodeFormatted reads (fmt e [(conv "r")] [(spec fstr)]).
func decodeFormatted(n *sexy.Node) (Expr, error) {
	if err := arity(n, 1, 3); err != nil {
		return nil, err
	}
	args := n.Args()
	value, err := decodeExpr(args[0])
	if err != nil {
		return nil, err
	}
	fv := &FormattedValue{Value: value}
	for _, opt := range args[1:] {
		if err := arity(opt, 1, 1); err != nil {
			return nil, err
		}
		switch opt.Head() {
		case "conv":
			s, err := stringAtom(opt.Args()[0])
			if err != nil {
				return nil, err
			}
			r, size := utf8.DecodeRuneInString(s)
			if size == 0 || size != len(s) {
				return nil, decodeErrorf(opt, "conversion must be one character, got %q", s)
			}
			fv.Conversion = r
		case "spec":
			if fv.FormatSpec, err = decodeExpr(opt.Args()[0]); err != nil {
				return nil, err
			}
		default:
			return nil, decodeErrorf(opt, "expected (conv ...) or (spec ...), got %s", opt)
		}
	}
	return fv, nil
}
