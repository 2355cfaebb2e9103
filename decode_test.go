package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestDecodeRoundTrip(t *testing.T) {
	src := strings.Join([]string{
		`(module`,
		` (def "f" (params "a" ("b" (int 1))) (vararg "rest") (kwarg "kw") (body (return (binop Add (name "a") (name "b")))))`,
		` (for (name "i") (call (name "range") (int 3)) (body (if (compare Lt (name "i") (int 2)) (body (continue)) (else (break)))))`,
		` (while (true) (body (pass)))`,
		` (try (body (raise (call (name "ValueError") (str "x")))) (except (name "ValueError") "e" (body (raise))) (except (body (pass))))`,
		` (assert (false) (str "m"))`,
		` (augassign Add (name "x") (float "2.5"))`,
		` (expr (call (name "print") (fstr (str "v=") (fmt (name "x") (conv "r") (spec (fstr (str ">4"))))) (kw "sep" (none)) (kwsplat (name "d"))))`,
		` (assign (name "t") (tuple (list) (dict (pair (str "k\n") (unary USub (int -5))))))`,
		` (expr (compare Lt (int 1) (int 2) LtE (int 3)))`,
		` (def "g" (params) (body (return))))`,
	}, "")

	mod, err := ParseModule(src)
	be.Err(t, err, nil)
	be.Equal(t, ToSExpr(mod), src)
}

func TestDecodeShapes(t *testing.T) {
	mod, err := ParseModule(`(module
  (def "f" (params "a" ("b" (str "x"))) (vararg "rest") (body (pass)))
  (expr (fstr (str "n=") (fmt (name "n") (conv "r")))))`)
	be.Err(t, err, nil)
	be.Equal(t, 2, len(mod.Body))

	def := mod.Body[0].(*FunctionDef)
	be.Equal(t, def.Name, "f")
	be.Equal(t, 2, len(def.Params))
	be.True(t, def.Params[0].Default == nil)
	be.Equal(t, def.Params[1].Default.(*Constant).Str, "x")
	be.Equal(t, def.VarArg, "rest")
	be.Equal(t, def.KwArg, "")

	js := mod.Body[1].(*ExprStmt).Value.(*JoinedStr)
	be.Equal(t, 2, len(js.Values))
	be.Equal(t, js.Values[1].(*FormattedValue).Conversion, 'r')
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"(module\n  (frob))", "2:3: unknown statement (frob)"},
		{`(module (assign (name "x")))`, "1:9: assign takes 2 operands, got 1"},
		{`(program)`, "1:1: expected (module ...), got (program)"},
		{`(module (expr (int 99999999999999999999)))`, "1:20: integer out of range: 99999999999999999999"},
		{`(module (expr (name x)))`, "1:21: expected string, got x"},
		{`(module (expr (binop "Add" (int 1) (int 2))))`, `1:22: expected operator symbol, got "Add"`},
		{`(module (expr (call (name "f") (kw "a" (int 1)) (int 2))))`, "1:49: positional argument after keyword argument"},
		{`(module (if (true) (body) (otherwise)))`, "1:27: expected (else ...), got (otherwise)"},
		{`(module (expr (fmt (name "x"))))`, `1:15: unknown expression (fmt (name "x"))`},
	}
	for _, test := range tests {
		_, err := ParseModule(test.src)
		be.True(t, err != nil)
		be.Equal(t, err.Error(), test.want)

		var de *DecodeError
		be.True(t, errors.As(err, &de))
	}
}

func TestDecodeSyntaxError(t *testing.T) {
	_, err := ParseModule(`(module (expr (int 1))`)
	be.True(t, err != nil)

	var de *DecodeError
	be.True(t, !errors.As(err, &de))
}
