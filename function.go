package main

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

// reservedSymbols are C names a source function may not take over. Such
// functions are emitted under a generated alias.
var reservedSymbols = map[string]bool{
	"main": true,
	// C keywords that are valid source identifiers.
	"auto": true, "case": true, "char": true, "const": true, "default": true,
	"do": true, "double": true, "enum": true, "extern": true, "float": true,
	"goto": true, "int": true, "long": true, "register": true, "short": true,
	"signed": true, "sizeof": true, "static": true, "struct": true,
	"switch": true, "typedef": true, "union": true, "unsigned": true,
	"void": true, "volatile": true,
}

// registerFunctions creates records for the definitions in stmts before
// any of them is compiled.
func (g *generator) registerFunctions(stmts []Stmt) error {
	for _, s := range stmts {
		def, ok := s.(*FunctionDef)
		if !ok {
			continue
		}
		if prev, exists := g.c.functions[def.Name]; exists {
			if prev.def == def {
				continue
			}
			return compileErrorf(UnsupportedFeature, "function %s defined more than once", def.Name)
		}
		g.c.functions[def.Name] = g.newFunctionRecord(def)
	}
	return nil
}

func (g *generator) newFunctionRecord(def *FunctionDef) *FunctionRecord {
	rec := &FunctionRecord{
		Name:     def.Name,
		CName:    def.Name,
		Defaults: make(map[string]Fragment),
		VarArg:   def.VarArg,
		KwArg:    def.KwArg,
		def:      def,
	}
	for _, p := range def.Params {
		rec.Params = append(rec.Params, p.Name)
	}
	if g.isReserved(def.Name) {
		rec.CName = g.c.names.next("_py_" + def.Name + "_")
	}
	names := append(slices.Clone(rec.Params), def.VarArg, def.KwArg)
	for _, p := range names {
		if p == "" || !g.isReserved(p) {
			continue
		}
		if rec.aliases == nil {
			rec.aliases = make(map[string]string)
		}
		rec.aliases[p] = g.c.names.next("_py_" + p + "_")
	}
	return rec
}

func (g *generator) isReserved(name string) bool {
	if reservedSymbols[name] {
		return true
	}
	return g.c.builtins.isCallee(name)
}

// bindName returns the C name for a variable being declared. A name that
// would clash with a reserved symbol gets an alias, reused for every later
// declaration in the same function.
func (g *generator) bindName(name string) string {
	if alias, ok := g.aliases[name]; ok {
		return alias
	}
	if !g.isReserved(name) {
		return name
	}
	if g.aliases == nil {
		g.aliases = make(map[string]string)
	}
	alias := g.c.names.next("_py_" + name + "_")
	g.aliases[name] = alias
	return alias
}

func (g *generator) cname(name string) string {
	if alias, ok := g.aliases[name]; ok {
		return alias
	}
	return name
}

// cname is the emitted name of a parameter.
func (fn *FunctionRecord) cname(param string) string {
	if alias, ok := fn.aliases[param]; ok {
		return alias
	}
	return param
}

func (fn *FunctionRecord) prototype() string {
	var params []string
	for _, p := range fn.Params {
		params = append(params, "Value "+fn.cname(p))
	}
	if fn.VarArg != "" {
		v := fn.cname(fn.VarArg)
		params = append(params, "Value *"+v, "int "+v+"_count")
	}
	if fn.KwArg != "" {
		params = append(params, "Value "+fn.cname(fn.KwArg))
	}
	if len(params) == 0 {
		params = []string{"void"}
	}
	return "Value " + fn.CName + "(" + strings.Join(params, ", ") + ")"
}

// genFunctionDef compiles a function in a fresh generator that shares the
// function table, includes and name allocator with the caller. The
// definition is queued for the assembler; nothing is emitted in place.
func (g *generator) genFunctionDef(n *FunctionDef) (Fragment, error) {
	g.trace("FunctionDef", "Visiting function: "+n.Name)
	rec := g.c.functions[n.Name]
	if rec == nil || rec.def != n {
		if err := g.registerFunctions([]Stmt{n}); err != nil {
			return Fragment{}, err
		}
		rec = g.c.functions[n.Name]
	}

	child := g.c.newGenerator(rec)
	child.depth = g.depth
	child.aliases = maps.Clone(rec.aliases)
	for _, p := range n.Params {
		child.scope.Declare(p.Name, typeValue)
	}
	if n.VarArg != "" {
		child.scope.Declare(n.VarArg, typeValueArray)
	}
	if n.KwArg != "" {
		child.scope.Declare(n.KwArg, typeValue)
	}

	body := child.declareBlockAssigned(n.Body)
	for _, p := range n.Params {
		if p.Default == nil {
			continue
		}
		child.temps.beginStatement()
		def, err := child.expr(p.Default)
		pending := child.temps.endStatement()
		if err != nil {
			return Fragment{}, err
		}
		rec.Defaults[p.Name] = exprFrag(def)
		for _, t := range pending {
			body = append(body, t.Decl)
		}
		param := rec.cname(p.Name)
		body = append(body, "if ("+call("is_none", param).String()+") { "+param+" = "+def+"; }")
	}

	stmts, err := child.compileBlock(n.Body)
	if err != nil {
		return Fragment{}, err
	}
	body = append(body, stmts...)
	body = append(body, "return "+noneSentinel+";")

	var lines []string
	lines = append(lines, rec.prototype()+" {")
	if deferred := child.temps.takeDeferred(); len(deferred) > 0 {
		for _, t := range deferred {
			lines = append(lines, g.indent+t.Decl)
		}
		lines = append(lines, "")
	}
	lines = append(lines, indentLines(body, g.indent)...)
	lines = append(lines, "}")
	rec.Body = strings.Join(lines, "\n")

	g.c.compiled = append(g.c.compiled, rec)
	return Fragment{}, nil
}

func (g *generator) genCall(n *Call) (Fragment, error) {
	callee, ok := n.Func.(*Name)
	if !ok {
		return Fragment{}, compileErrorf(UnsupportedFeature, "call of %s; only direct calls are supported", n.Func.Kind())
	}
	g.trace("Call", "Visiting call: "+callee.ID)
	for _, kw := range n.Keywords {
		if kw.Arg == "" {
			return Fragment{}, compileErrorf(UnsupportedFeature, "keyword-variadic forwarding in call to %s", callee.ID)
		}
	}
	if rec, ok := g.c.functions[callee.ID]; ok {
		return g.callFunction(rec, n)
	}
	if b, ok := g.c.builtins.Lookup(callee.ID); ok {
		return g.callBuiltin(b, n)
	}
	return Fragment{}, compileErrorf(UnresolvedCallee, "function '%s' not defined", callee.ID)
}

// callFunction binds arguments to a compiled function's parameters.
// Missing trailing arguments take the recorded defaults, regenerated in the
// caller so that any temporaries they need are declared here.
func (g *generator) callFunction(rec *FunctionRecord, n *Call) (Fragment, error) {
	if len(n.Args) > len(rec.Params) && rec.VarArg == "" {
		return Fragment{}, compileErrorf(ArityMismatch, "too many arguments for function '%s': got %d, want %d",
			rec.Name, len(n.Args), len(rec.Params))
	}
	slots := make([]string, len(rec.Params))
	filled := make([]bool, len(rec.Params))
	for _, kw := range n.Keywords {
		i := indexOf(rec.Params, kw.Arg)
		if i < 0 {
			return Fragment{}, compileErrorf(ArityMismatch, "function '%s' has no parameter '%s'", rec.Name, kw.Arg)
		}
		if i < len(n.Args) {
			return Fragment{}, compileErrorf(ArityMismatch, "multiple values for argument '%s' in call to '%s'", kw.Arg, rec.Name)
		}
		filled[i] = true
	}
	for i := len(n.Args); i < len(rec.Params); i++ {
		if !filled[i] && rec.def.Params[i].Default == nil {
			return Fragment{}, compileErrorf(ArityMismatch, "no value for argument '%s' in call to '%s'", rec.Params[i], rec.Name)
		}
	}

	var extras []string
	for i, arg := range n.Args {
		code, err := g.expr(arg)
		if err != nil {
			return Fragment{}, err
		}
		if i < len(slots) {
			slots[i] = code
		} else {
			extras = append(extras, code)
		}
	}
	for _, kw := range n.Keywords {
		code, err := g.expr(kw.Value)
		if err != nil {
			return Fragment{}, err
		}
		slots[indexOf(rec.Params, kw.Arg)] = code
	}
	for i := range slots {
		if slots[i] != "" {
			continue
		}
		code, err := g.expr(rec.def.Params[i].Default)
		if err != nil {
			return Fragment{}, err
		}
		slots[i] = code
	}

	args := slots
	if rec.VarArg != "" {
		at := g.placement(n.Args[min(len(n.Args), len(rec.Params)):]...)
		args = append(args, g.backingArray("_varargs_", at, extras), strconv.Itoa(len(extras)))
	}
	if rec.KwArg != "" {
		args = append(args, noneSentinel)
	}
	return exprFrag(call(rec.CName, args...).String()), nil
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
