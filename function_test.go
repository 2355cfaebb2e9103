package main

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestMainIsRenamed(t *testing.T) {
	mod := &Module{Body: []Stmt{
		&FunctionDef{Name: "main", Body: []Stmt{&Return{Value: IntConst(0)}}},
		ExprOf(CallOf("main")),
	}}
	out, err := Compile(mod, DefaultOptions())
	be.Err(t, err, nil)
	be.Equal(t, 1, strings.Count(out, "main("))
	be.True(t, strings.Contains(out, "int main() {"))
	be.True(t, strings.Contains(out, "Value _py_main_"))
}

func TestKeywordNamedFunctionIsRenamed(t *testing.T) {
	mod := &Module{Body: []Stmt{
		&FunctionDef{Name: "switch", Body: []Stmt{&Pass{}}},
		ExprOf(CallOf("switch")),
	}}
	out, err := Compile(mod, DefaultOptions())
	be.Err(t, err, nil)
	be.True(t, !strings.Contains(out, "switch("))
	be.True(t, strings.Contains(out, "_py_switch_"))
}

func TestPrototype(t *testing.T) {
	tests := []struct {
		rec  FunctionRecord
		want string
	}{
		{FunctionRecord{CName: "f"}, "Value f(void)"},
		{FunctionRecord{CName: "f", Params: []string{"a", "b"}}, "Value f(Value a, Value b)"},
		{FunctionRecord{CName: "f", Params: []string{"a"}, VarArg: "rest"}, "Value f(Value a, Value *rest, int rest_count)"},
		{FunctionRecord{CName: "f", VarArg: "rest", KwArg: "kw"}, "Value f(Value *rest, int rest_count, Value kw)"},
	}
	for _, test := range tests {
		be.Equal(t, test.rec.prototype(), test.want)
	}
}

func TestArityMismatchProducesNoOutput(t *testing.T) {
	mod := &Module{Body: []Stmt{
		&FunctionDef{Name: "f", Params: []Param{{Name: "a"}}, Body: []Stmt{&Pass{}}},
		ExprOf(CallOf("f", IntConst(1), IntConst(2))),
	}}
	out, err := Compile(mod, DefaultOptions())
	be.Equal(t, out, "")
	be.True(t, IsKind(err, ArityMismatch))
	be.Equal(t, err.Error(), "ArityMismatch: too many arguments for function 'f': got 2, want 1")
}

func TestUnknownKeywordArgument(t *testing.T) {
	c := CallOf("f")
	c.Keywords = []Keyword{{Arg: "b", Value: IntConst(1)}}
	mod := &Module{Body: []Stmt{
		&FunctionDef{Name: "f", Params: []Param{{Name: "a", Default: IntConst(0)}}, Body: []Stmt{&Pass{}}},
		ExprOf(c),
	}}
	_, err := Compile(mod, DefaultOptions())
	be.True(t, IsKind(err, ArityMismatch))
}

func TestKeywordAndPositionalForSameParameter(t *testing.T) {
	c := CallOf("f", IntConst(1))
	c.Keywords = []Keyword{{Arg: "a", Value: IntConst(2)}}
	mod := &Module{Body: []Stmt{
		&FunctionDef{Name: "f", Params: []Param{{Name: "a"}}, Body: []Stmt{&Pass{}}},
		ExprOf(c),
	}}
	_, err := Compile(mod, DefaultOptions())
	be.True(t, IsKind(err, ArityMismatch))
}

func TestDefaultsAreRecorded(t *testing.T) {
	c := newCompilation(DefaultOptions())
	g := c.newGenerator(nil)
	def := &FunctionDef{
		Name:   "f",
		Params: []Param{{Name: "a"}, {Name: "b", Default: StrConst("x")}},
		Body:   []Stmt{&Return{Value: Ident("b")}},
	}
	_, err := g.compileBlock([]Stmt{def})
	be.Err(t, err, nil)

	rec := c.functions["f"]
	be.Equal(t, rec.Defaults["b"].Code, `create_string("x")`)
	be.True(t, strings.Contains(rec.Body, `if (is_none(b)) { b = create_string("x"); }`))
	be.True(t, strings.HasSuffix(rec.Body, "    return None;\n}"))
	be.Equal(t, 1, len(c.compiled))
}

func TestCallWithMissingDefaultArguments(t *testing.T) {
	mod := &Module{Body: []Stmt{
		&FunctionDef{
			Name:   "f",
			Params: []Param{{Name: "a"}, {Name: "b", Default: IntConst(2)}, {Name: "c", Default: NoneConst()}},
			Body:   []Stmt{&Pass{}},
		},
		ExprOf(CallOf("f", IntConst(1))),
	}}
	out, err := Compile(mod, DefaultOptions())
	be.Err(t, err, nil)
	be.True(t, strings.Contains(out, "    f(create_int(1), create_int(2), None);\n"))
}

func TestReturnOutsideFunction(t *testing.T) {
	_, err := Compile(&Module{Body: []Stmt{&Return{}}}, DefaultOptions())
	be.True(t, IsKind(err, UnsupportedConstruct))
}

func TestFunctionsShareNameAllocator(t *testing.T) {
	list := func() Expr { return &List{Elts: []Expr{IntConst(1)}} }
	mod := &Module{Body: []Stmt{
		&FunctionDef{Name: "f", Body: []Stmt{&Assign{Target: Ident("x"), Value: list()}}},
		&FunctionDef{Name: "g", Body: []Stmt{&Assign{Target: Ident("x"), Value: list()}}},
		&Assign{Target: Ident("x"), Value: list()},
	}}
	out, err := Compile(mod, DefaultOptions())
	be.Err(t, err, nil)
	names := make(map[string]bool)
	for _, m := range tempPattern.FindAllString(out, -1) {
		names[m] = true
	}
	be.Equal(t, 3, len(names))
}
