package main

import (
	"math"
	"strconv"
	"strings"
)

// noneSentinel is the support library's none value.
const noneSentinel = "None"

var binaryOps = map[string]string{
	"Add":      "add_values",
	"Sub":      "sub_values",
	"Mult":     "mul_values",
	"Div":      "div_values",
	"Pow":      "pow_values",
	"FloorDiv": "floordiv_values",
	"Mod":      "mod_values",
}

var unaryOps = map[string]string{
	"UAdd": "pos_values",
	"USub": "neg_values",
	"Not":  "not_values",
}

var compareOps = map[string]string{
	"Eq":    "eq_values",
	"NotEq": "ne_values",
	"Lt":    "lt_values",
	"LtE":   "le_values",
	"Gt":    "gt_values",
	"GtE":   "ge_values",
}

func (g *generator) genName(n *Name) (Fragment, error) {
	g.trace("Name", n.ID)
	name := g.cname(n.ID)
	if typ, ok := g.scope.Lookup(n.ID); ok && typ == typeValueArray {
		// A variadic parameter arrives as storage plus a count.
		return exprFrag(call("make_tuple", name+"_count", name).String()), nil
	}
	return exprFrag(name), nil
}

func (g *generator) genConstant(n *Constant) (Fragment, error) {
	g.trace("Constant", ToSExpr(n))
	switch n.Const {
	case ConstInt:
		return exprFrag(call("create_int", strconv.FormatInt(n.Int, 10)).String()), nil
	case ConstFloat:
		if math.IsInf(n.Float, 0) || math.IsNaN(n.Float) {
			return Fragment{}, compileErrorf(UnsupportedConstruct, "float constant %v has no literal form", n.Float)
		}
		return exprFrag(call("create_float", formatFloat(n.Float)).String()), nil
	case ConstString:
		return exprFrag(call("create_string", cString(n.Str)).String()), nil
	case ConstBool:
		b := "0"
		if n.Bool {
			b = "1"
		}
		return exprFrag(call("create_bool", b).String()), nil
	case ConstNone:
		return exprFrag(noneSentinel), nil
	default:
		return Fragment{}, compileErrorf(UnsupportedConstruct, "unsupported constant kind %d", n.Const)
	}
}

// formatFloat renders f so that it reads back as the same float64 and is
// never mistaken for an integer literal.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// cString quotes s as a C string literal. Bytes outside printable ASCII use
// three-digit octal escapes, which never absorb following characters.
func cString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\':
			sb.WriteString(`\\`)
		case c == '"':
			sb.WriteString(`\"`)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c < 0x20 || c > 0x7e:
			sb.WriteByte('\\')
			sb.WriteByte('0' + c>>6)
			sb.WriteByte('0' + (c>>3)&7)
			sb.WriteByte('0' + c&7)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// backingArray hoists "Value name[n] = {...};" for codes and returns its
// name, or NULL when codes is empty.
func (g *generator) backingArray(prefix string, at Placement, codes []string) string {
	if len(codes) == 0 {
		return "NULL"
	}
	init := strings.Join(codes, ", ")
	return g.temps.hoist(prefix, at, func(name string) string {
		return "Value " + name + "[" + strconv.Itoa(len(codes)) + "] = {" + init + "};"
	})
}

func (g *generator) genList(n *List) (Fragment, error) {
	g.trace("List", "Visiting list")
	return g.genSequence("make_list", "_list_items_", n.Elts)
}

func (g *generator) genTuple(n *Tuple) (Fragment, error) {
	g.trace("Tuple", "Visiting tuple")
	return g.genSequence("make_tuple", "_tuple_items_", n.Elts)
}

func (g *generator) genSequence(ctor, prefix string, elts []Expr) (Fragment, error) {
	codes, err := g.exprs(elts)
	if err != nil {
		return Fragment{}, err
	}
	items := g.backingArray(prefix, g.placement(elts...), codes)
	return exprFrag(call(ctor, strconv.Itoa(len(codes)), items).String()), nil
}

func (g *generator) genDict(n *Dict) (Fragment, error) {
	g.trace("Dict", "Visiting dictionary")
	if len(n.Keys) != len(n.Values) {
		return Fragment{}, compileErrorf(UnsupportedFeature, "dict literal with %d keys and %d values", len(n.Keys), len(n.Values))
	}
	keys := make([]string, 0, len(n.Keys))
	values := make([]string, 0, len(n.Values))
	for i := range n.Keys {
		k, err := g.expr(n.Keys[i])
		if err != nil {
			return Fragment{}, err
		}
		v, err := g.expr(n.Values[i])
		if err != nil {
			return Fragment{}, err
		}
		keys = append(keys, k)
		values = append(values, v)
	}
	at := g.placement(append(append([]Expr{}, n.Keys...), n.Values...)...)
	keyArr := g.backingArray("_dict_keys_", at, keys)
	valueArr := g.backingArray("_dict_values_", at, values)
	return exprFrag(call("make_dict", strconv.Itoa(len(keys)), keyArr, valueArr).String()), nil
}

func (g *generator) genBinOp(n *BinOp) (Fragment, error) {
	g.trace("BinOp", n.Op)
	fn, ok := binaryOps[n.Op]
	if !ok {
		return Fragment{}, compileErrorf(UnsupportedConstruct, "unsupported binary operator %s", n.Op)
	}
	g.c.includes.add("ops.c")
	left, err := g.expr(n.Left)
	if err != nil {
		return Fragment{}, err
	}
	right, err := g.expr(n.Right)
	if err != nil {
		return Fragment{}, err
	}
	return exprFrag(call(fn, left, right).String()), nil
}

func (g *generator) genUnaryOp(n *UnaryOp) (Fragment, error) {
	g.trace("UnaryOp", n.Op)
	fn, ok := unaryOps[n.Op]
	if !ok {
		return Fragment{}, compileErrorf(UnsupportedConstruct, "unsupported unary operator %s", n.Op)
	}
	g.c.includes.add("ops.c")
	operand, err := g.expr(n.Operand)
	if err != nil {
		return Fragment{}, err
	}
	return exprFrag(call(fn, operand).String()), nil
}

func (g *generator) genCompare(n *Compare) (Fragment, error) {
	g.trace("Compare", strings.Join(n.Ops, " "))
	if len(n.Ops) != 1 || len(n.Comparators) != 1 {
		return Fragment{}, compileErrorf(UnsupportedFeature, "chained comparison with %d operators", len(n.Ops))
	}
	fn, ok := compareOps[n.Ops[0]]
	if !ok {
		return Fragment{}, compileErrorf(UnsupportedConstruct, "unsupported comparison operator %s", n.Ops[0])
	}
	g.c.includes.add("ops.c")
	left, err := g.expr(n.Left)
	if err != nil {
		return Fragment{}, err
	}
	right, err := g.expr(n.Comparators[0])
	if err != nil {
		return Fragment{}, err
	}
	return exprFrag(call(fn, left, right).String()), nil
}

func (g *generator) genJoinedStr(n *JoinedStr) (Fragment, error) {
	g.trace("JoinedStr", "Visiting joined string")
	g.c.includes.add("ops.c")
	parts := []string{strconv.Itoa(len(n.Values))}
	for _, v := range n.Values {
		code, err := g.expr(v)
		if err != nil {
			return Fragment{}, err
		}
		parts = append(parts, code)
	}
	return exprFrag(call("join_strings", parts...).String()), nil
}

func (g *generator) genFormattedValue(n *FormattedValue) (Fragment, error) {
	g.trace("FormattedValue", "Visiting formatted value")
	if n.Conversion != 0 {
		return Fragment{}, compileErrorf(UnsupportedFeature, "f-string conversion !%c", n.Conversion)
	}
	if n.FormatSpec != nil {
		return Fragment{}, compileErrorf(UnsupportedFeature, "f-string format spec")
	}
	value, err := g.expr(n.Value)
	if err != nil {
		return Fragment{}, err
	}
	return exprFrag(call("to_string", value).String()), nil
}

// truthy renders the C condition for a value.
func truthy(code string) string {
	return call("bool_val", code).String() + ".bool_val"
}
