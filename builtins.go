package main

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// BoundArg is the value bound to one builtin parameter at a call site.
type BoundArg struct {
	Code string
	// Count is the number of source arguments behind Code: the group size
	// for a variadic parameter, 1 otherwise.
	Count    int
	Supplied bool
}

// BoundArgs maps parameter names to their bound values.
type BoundArgs map[string]BoundArg

// BuiltinParam is one slot of a builtin signature. An unfilled slot takes,
// in order, its computed default, its static default, or stays unbound if
// it is optional. Anything else is a MissingArgument.
type BuiltinParam struct {
	Name     string
	Default  string
	Computed func(BoundArgs) (string, error)
	Variadic bool
	Optional bool
	// TypeTag slots take a type name and bind the support library's type
	// constant for it.
	TypeTag bool
}

// Builtin describes a callable provided by the support library.
type Builtin struct {
	Name   string
	Lib    string
	Callee string
	Params []BuiltinParam
	// Void calls are statements and cannot be used as values.
	Void bool
	// Render builds the call from the bound arguments. Nil calls Callee
	// with every bound parameter in declaration order.
	Render func(BoundArgs) CallExpr
}

func (b *Builtin) variadicIndex() int {
	for i, p := range b.Params {
		if p.Variadic {
			return i
		}
	}
	return -1
}

func (b *Builtin) render(args BoundArgs) CallExpr {
	if b.Render != nil {
		return b.Render(args)
	}
	var codes []string
	for _, p := range b.Params {
		a := args[p.Name]
		switch {
		case p.Variadic:
			// The group travels as one list value so the callee sees its length.
			codes = append(codes, call("make_list", strconv.Itoa(a.Count), a.Code).String())
		case a.Code != "":
			codes = append(codes, a.Code)
		}
	}
	return call(b.Callee, codes...)
}

// BuiltinTable holds the builtin signatures of a compilation.
type BuiltinTable struct {
	byName  map[string]*Builtin
	callees map[string]bool
}

func NewBuiltinTable() *BuiltinTable {
	return &BuiltinTable{
		byName:  make(map[string]*Builtin),
		callees: make(map[string]bool),
	}
}

// Add validates b and registers it, replacing any builtin of the same name.
func (t *BuiltinTable) Add(b Builtin) error {
	if b.Name == "" {
		return compileErrorf(UnsupportedConstruct, "builtin without a name")
	}
	if b.Callee == "" && b.Render == nil {
		return compileErrorf(UnsupportedConstruct, "builtin %s has no callee", b.Name)
	}
	seen := make(map[string]bool)
	variadic := ""
	for _, p := range b.Params {
		if seen[p.Name] {
			return compileErrorf(UnsupportedConstruct, "builtin %s declares parameter %s twice", b.Name, p.Name)
		}
		seen[p.Name] = true
		if p.Variadic {
			if variadic != "" {
				return compileErrorf(MultipleVariadic, "builtin %s declares variadic parameters %s and %s", b.Name, variadic, p.Name)
			}
			variadic = p.Name
		}
	}
	t.byName[b.Name] = &b
	if b.Callee != "" {
		t.callees[b.Callee] = true
	}
	return nil
}

func (t *BuiltinTable) Lookup(name string) (*Builtin, bool) {
	b, ok := t.byName[name]
	return b, ok
}

// Names returns the builtin names in sorted order.
func (t *BuiltinTable) Names() []string {
	names := make([]string, 0, len(t.byName))
	for name := range t.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy that can be extended.
func (t *BuiltinTable) Clone() *BuiltinTable {
	c := NewBuiltinTable()
	for name, b := range t.byName {
		c.byName[name] = b
	}
	for callee := range t.callees {
		c.callees[callee] = true
	}
	return c
}

func (t *BuiltinTable) isCallee(name string) bool {
	return t.callees[name] || runtimeSymbols[name]
}

// runtimeSymbols are support-library functions emitted by generators
// rather than through a builtin signature.
var runtimeSymbols = map[string]bool{
	"create_int": true, "create_float": true, "create_string": true, "create_bool": true,
	"make_list": true, "make_tuple": true, "make_dict": true, "free_value": true,
	"add_values": true, "sub_values": true, "mul_values": true, "div_values": true,
	"pow_values": true, "floordiv_values": true, "mod_values": true,
	"pos_values": true, "neg_values": true, "not_values": true,
	"eq_values": true, "ne_values": true, "lt_values": true,
	"le_values": true, "gt_values": true, "ge_values": true,
	"join_strings": true, "is_none": true, "assert": true,
	"init_exc": true, "raise_exception": true, "exc_isinstance": true,
	"make_value_from_exc": true, "range_stop": true, "range_start_stop": true,
	"None": true,
}

// typeTags maps source type names to the support library's type constants.
var typeTags = map[string]string{
	"NoneType":  "TYPE_NONE",
	"int":       "TYPE_INT",
	"float":     "TYPE_FLOAT",
	"tuple":     "TYPE_TUPLE",
	"str":       "TYPE_STRING",
	"list":      "TYPE_LIST",
	"dict":      "TYPE_DICT",
	"set":       "TYPE_SET",
	"frozenset": "TYPE_FROZENSET",
	"bool":      "TYPE_BOOL",
}

// countOf is a computed default yielding the argument count of param.
func countOf(param string) func(BoundArgs) (string, error) {
	return func(args BoundArgs) (string, error) {
		a, ok := args[param]
		if !ok {
			return "", fmt.Errorf("parameter %s is not bound", param)
		}
		return strconv.Itoa(a.Count), nil
	}
}

var computedPattern = regexp.MustCompile(`^len\(\s*([A-Za-z_][A-Za-z0-9_]*)\s*\)$`)

// parseComputed accepts the computed-default forms allowed in configuration
// files. Only len(<param>) is supported.
func parseComputed(expr string) (string, func(BoundArgs) (string, error), error) {
	m := computedPattern.FindStringSubmatch(expr)
	if m == nil {
		return "", nil, fmt.Errorf("unsupported computed default %q", expr)
	}
	return m[1], countOf(m[1]), nil
}

func unary(name, lib, callee, param string) Builtin {
	return Builtin{Name: name, Lib: lib, Callee: callee, Params: []BuiltinParam{{Name: param}}}
}

// DefaultBuiltins returns the builtin table of the support library.
func DefaultBuiltins() *BuiltinTable {
	t := NewBuiltinTable()
	for _, b := range []Builtin{
		{
			Name:   "print",
			Lib:    "io.c",
			Callee: "print",
			Params: []BuiltinParam{
				{Name: "args", Variadic: true},
				{Name: "sep", Default: `create_string(" ")`},
				{Name: "end", Default: `create_string("\n")`},
				{Name: "list_len", Computed: countOf("args")},
			},
			Render: func(a BoundArgs) CallExpr {
				items := call("make_list", a["list_len"].Code, a["args"].Code)
				return call("print", items.String(), a["sep"].Code, a["end"].Code)
			},
		},
		{
			Name:   "input",
			Lib:    "io.c",
			Callee: "input",
			Params: []BuiltinParam{{Name: "prompt", Default: `create_string("")`}},
		},
		unary("int", "runtime.c", "to_int", "v"),
		unary("str", "runtime.c", "to_string", "v"),
		unary("len", "runtime.c", "len", "v"),
		unary("abs", "runtime.c", "abs_val", "v"),
		unary("max", "runtime.c", "max_val", "list"),
		unary("min", "runtime.c", "min_val", "list"),
		unary("sum", "runtime.c", "sum_val", "list"),
		unary("bool", "runtime.c", "bool_val", "v"),
		unary("ord", "runtime.c", "ord_val", "v"),
		unary("chr", "runtime.c", "chr_val", "v"),
		unary("reversed", "runtime.c", "reversed_val", "v"),
		unary("upper", "runtime.c", "upper_val", "v"),
		unary("lower", "runtime.c", "lower_val", "v"),
		unary("sorted", "runtime.c", "sorted_val", "list"),
		unary("set", "runtime.c", "set_val", "v"),
		{
			Name:   "range",
			Lib:    "runtime.c",
			Callee: "range_val",
			Params: []BuiltinParam{
				{Name: "start"},
				{Name: "stop", Optional: true},
				{Name: "step", Optional: true},
			},
			Render: func(a BoundArgs) CallExpr {
				switch {
				case !a["stop"].Supplied:
					return call("range_stop", a["start"].Code)
				case !a["step"].Supplied:
					return call("range_start_stop", a["start"].Code, a["stop"].Code)
				default:
					return call("range_val", a["start"].Code, a["stop"].Code, a["step"].Code)
				}
			},
		},
		{
			Name:   "isinstance",
			Lib:    "runtime.c",
			Callee: "isinstance_val",
			Params: []BuiltinParam{{Name: "v"}, {Name: "type", TypeTag: true}},
		},
	} {
		if err := t.Add(b); err != nil {
			panic(err)
		}
	}
	return t
}

// callBuiltin binds the arguments of n to b's signature and renders the
// support-library call.
func (g *generator) callBuiltin(b *Builtin, n *Call) (Fragment, error) {
	vi := b.variadicIndex()
	positional := len(b.Params)
	if vi >= 0 {
		positional = vi
	}
	if vi < 0 && len(n.Args) > positional {
		return Fragment{}, compileErrorf(ArityMismatch, "%s() takes at most %d arguments, got %d", b.Name, positional, len(n.Args))
	}

	args := make(BoundArgs, len(b.Params))
	bind := func(p BuiltinParam, e Expr) error {
		if _, dup := args[p.Name]; dup {
			return compileErrorf(ArityMismatch, "%s() got multiple values for argument '%s'", b.Name, p.Name)
		}
		code, err := g.builtinArg(b, p, e)
		if err != nil {
			return err
		}
		args[p.Name] = BoundArg{Code: code, Count: 1, Supplied: true}
		return nil
	}

	var group []Expr
	for i, arg := range n.Args {
		if i < positional {
			if err := bind(b.Params[i], arg); err != nil {
				return Fragment{}, err
			}
			continue
		}
		group = append(group, arg)
	}
	if vi >= 0 {
		codes, err := g.exprs(group)
		if err != nil {
			return Fragment{}, err
		}
		p := b.Params[vi]
		items := g.backingArray("_"+b.Name+"_", g.placement(group...), codes)
		args[p.Name] = BoundArg{Code: items, Count: len(codes), Supplied: len(codes) > 0}
	}

	for _, kw := range n.Keywords {
		i := b.paramIndex(kw.Arg)
		if i < 0 {
			return Fragment{}, compileErrorf(ArityMismatch, "%s() got an unexpected keyword argument '%s'", b.Name, kw.Arg)
		}
		if i == vi {
			return Fragment{}, compileErrorf(UnsupportedFeature, "variadic parameter '%s' of %s() passed by keyword", kw.Arg, b.Name)
		}
		if err := bind(b.Params[i], kw.Value); err != nil {
			return Fragment{}, err
		}
	}

	for _, p := range b.Params {
		if _, ok := args[p.Name]; ok {
			continue
		}
		switch {
		case p.Computed != nil:
			code, err := p.Computed(args)
			if err != nil {
				return Fragment{}, compileErrorf(MissingArgument, "%s() parameter '%s': %v", b.Name, p.Name, err)
			}
			args[p.Name] = BoundArg{Code: code, Count: 1}
		case p.Default != "":
			args[p.Name] = BoundArg{Code: p.Default, Count: 1}
		case p.Optional:
		default:
			return Fragment{}, compileErrorf(MissingArgument, "no value for argument '%s' in call to %s()", p.Name, b.Name)
		}
	}

	if b.Lib != "" {
		g.c.includes.add(b.Lib)
	}
	code := b.render(args).String()
	if b.Void {
		return stmtFrag(code + ";"), nil
	}
	return exprFrag(code), nil
}

func (b *Builtin) paramIndex(name string) int {
	for i, p := range b.Params {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func (g *generator) builtinArg(b *Builtin, p BuiltinParam, e Expr) (string, error) {
	if !p.TypeTag {
		return g.expr(e)
	}
	name, ok := e.(*Name)
	if !ok {
		return "", compileErrorf(UnsupportedFeature, "%s() argument '%s' must be a type name, got %s", b.Name, p.Name, e.Kind())
	}
	tag, ok := typeTags[name.ID]
	if !ok {
		return "", compileErrorf(UnsupportedFeature, "%s() does not know type %s", b.Name, name.ID)
	}
	return tag, nil
}
