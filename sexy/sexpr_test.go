package sexy

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestParseSymbol(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello", "hello"},
		{"test_var", "test_var"},
		{"func-name", "func-name"},
		{"_private", "_private"},
		{"FloorDiv", "FloorDiv"},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeSymbol)
		be.Equal(t, result.Text, test.expected)
		be.Equal(t, result.String(), test.expected)
	}
}

func TestParseString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		output   string
	}{
		{`"hello"`, "hello", `"hello"`},
		{`"hello world"`, "hello world", `"hello world"`},
		{`""`, "", `""`},
		{`"test\"quote"`, `test"quote`, `"test\"quote"`},
		{`"test\\backslash"`, `test\backslash`, `"test\\backslash"`},
		{`"line\nbreak"`, "line\nbreak", `"line\nbreak"`},
		{`"tab\there"`, "tab\there", `"tab\there"`},
		{`"héllo"`, "héllo", `"héllo"`},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeString)
		be.Equal(t, result.Text, test.expected)
		be.Equal(t, result.String(), test.output)
	}
}

func TestParseInteger(t *testing.T) {
	tests := []string{"42", "0", "-123", "+456", "9223372036854775807"}

	for _, input := range tests {
		result, err := Parse(input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeInteger)
		be.Equal(t, result.Text, input)
		be.Equal(t, result.String(), input)
	}
}

func TestParseList(t *testing.T) {
	result, err := Parse(`(call (name "print") (int 1) (kw "sep" (str ", ")))`)
	be.Err(t, err, nil)

	be.Equal(t, result.Type, NodeList)
	be.Equal(t, result.Head(), "call")
	be.Equal(t, len(result.Args()), 3)
	be.Equal(t, result.Args()[0].Head(), "name")
	be.Equal(t, result.Args()[0].Args()[0].Text, "print")
	be.Equal(t, result.String(), `(call (name "print") (int 1) (kw "sep" (str ", ")))`)
}

func TestParseEmptyList(t *testing.T) {
	result, err := Parse("()")
	be.Err(t, err, nil)
	be.Equal(t, result.Type, NodeList)
	be.Equal(t, len(result.Items), 0)
	be.Equal(t, result.Head(), "")
	be.Equal(t, len(result.Args()), 0)
}

func TestParseComments(t *testing.T) {
	input := `; a module
(module ; with one statement
  (pass))`
	result, err := Parse(input)
	be.Err(t, err, nil)
	be.Equal(t, result.String(), "(module (pass))")
}

func TestParsePositions(t *testing.T) {
	result, err := Parse("(module\n  (expr\n    (name \"x\")))")
	be.Err(t, err, nil)

	be.Equal(t, result.Pos, Pos{Line: 1, Col: 1})
	expr := result.Items[1]
	be.Equal(t, expr.Pos, Pos{Line: 2, Col: 3})
	name := expr.Items[1]
	be.Equal(t, name.Pos, Pos{Line: 3, Col: 5})
	be.Equal(t, name.Items[1].Pos, Pos{Line: 3, Col: 11})
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"(module", "expected ')'"},
		{`"unterminated`, "unterminated string"},
		{`"bad \q escape"`, "invalid escape sequence"},
		{"(a) (b)", "expected EOF"},
		{"(a . b)", "unexpected character '.'"},
		{"(+)", "unexpected character '+'"},
		{")", "unexpected token"},
	}

	for _, test := range tests {
		_, err := Parse(test.input)
		be.True(t, err != nil)
		be.True(t, strings.Contains(err.Error(), test.want))
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := Parse("(module\n  (expr @))")
	be.True(t, err != nil)
	be.True(t, strings.HasPrefix(err.Error(), "2:9:"))
}

func TestQuoteRoundTrip(t *testing.T) {
	inputs := []string{"", "plain", `a"b`, `c:\dir`, "x\ny\tz\r", "ünïcödé"}
	for _, s := range inputs {
		node, err := Parse(Quote(s))
		be.Err(t, err, nil)
		be.Equal(t, node.Text, s)
	}
}

func TestConstructors(t *testing.T) {
	node := NewList(NewSymbol("call"), NewList(NewSymbol("name"), NewString("f")), NewInteger("-1"))
	be.Equal(t, node.String(), `(call (name "f") -1)`)
	be.True(t, !node.IsAtom())
	be.True(t, node.Items[2].IsAtom())
}
