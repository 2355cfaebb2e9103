package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

const sampleConfig = `
runtime_dir = "rt"
runtime_version = "1.4.2"
indent = 2
reraise_unmatched = false

[[builtin]]
name = "mean"
lib = "stats.c"
callee = "mean_val"

  [[builtin.param]]
  name = "xs"
  variadic = true

  [[builtin.param]]
  name = "n"
  computed = "len(xs)"

[[builtin]]
name = "clamp"
lib = "stats.c"

  [[builtin.param]]
  name = "v"

  [[builtin.param]]
  name = "hi"
  default = "create_int(100)"
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(sampleConfig)
	be.Err(t, err, nil)
	be.Equal(t, cfg.RuntimeDir, "rt")
	be.Equal(t, cfg.Indent, 2)
	be.True(t, cfg.ReraiseUnmatched != nil && !*cfg.ReraiseUnmatched)
	be.Equal(t, 2, len(cfg.Builtins))
	be.Equal(t, 2, len(cfg.Builtins[0].Params))
	be.True(t, cfg.Builtins[0].Params[0].Variadic)
}

func TestConfigOptions(t *testing.T) {
	cfg, err := ParseConfig(sampleConfig)
	be.Err(t, err, nil)
	opts, err := cfg.Options()
	be.Err(t, err, nil)
	be.Equal(t, opts.RuntimeDir, "rt")
	be.Equal(t, opts.IndentWidth, 2)
	be.Equal(t, opts.ReraiseUnmatched, false)

	_, ok := opts.Builtins.Lookup("print")
	be.True(t, ok)
	_, ok = DefaultBuiltins().Lookup("mean")
	be.True(t, !ok)

	mod := &Module{Body: []Stmt{
		&Assign{Target: Ident("m"), Value: CallOf("mean", IntConst(1), IntConst(2), IntConst(3))},
		&Assign{Target: Ident("c"), Value: CallOf("clamp", Ident("m"))},
	}}
	out, err := Compile(mod, opts)
	be.Err(t, err, nil)
	out = normalizeTemps(out)
	be.True(t, strings.Contains(out, `#include "rt/stats.c"`))
	be.True(t, strings.Contains(out, "  Value m = mean_val(make_list(3, _mean_#1), 3);\n"))
	be.True(t, strings.Contains(out, "  Value c = clamp(m, create_int(100));\n"))
}

func TestConfigVariadicBuiltinReceivesList(t *testing.T) {
	cfg, err := ParseConfig(`
[[builtin]]
name = "concat"
lib = "text.c"
callee = "concat_val"

  [[builtin.param]]
  name = "sep"

  [[builtin.param]]
  name = "parts"
  variadic = true
`)
	be.Err(t, err, nil)
	opts, err := cfg.Options()
	be.Err(t, err, nil)

	mod := &Module{Body: []Stmt{
		&Assign{Target: Ident("a"), Value: StrConst("x")},
		&Assign{Target: Ident("b"), Value: StrConst("y")},
		&Assign{Target: Ident("joined"), Value: CallOf("concat", StrConst("-"), Ident("a"), Ident("b"))},
		&Assign{Target: Ident("empty"), Value: CallOf("concat", StrConst("-"))},
	}}
	out, err := Compile(mod, opts)
	be.Err(t, err, nil)
	out = normalizeTemps(out)
	be.True(t, strings.Contains(out, "    Value _concat_#1[2] = {a, b};\n"+
		"    Value joined = concat_val(create_string(\"-\"), make_list(2, _concat_#1));\n"))
	be.True(t, strings.Contains(out, "    Value empty = concat_val(create_string(\"-\"), make_list(0, NULL));\n"))
}

func TestConfigDefaultsKeepOptions(t *testing.T) {
	cfg, err := ParseConfig(``)
	be.Err(t, err, nil)
	opts, err := cfg.Options()
	be.Err(t, err, nil)
	be.Equal(t, opts.IndentWidth, 4)
	be.Equal(t, opts.ReraiseUnmatched, true)
	be.True(t, opts.Builtins == nil)
}

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{`colour = "red"`, `unknown config key "colour"`},
		{`runtime_version = "2.0.0"`, "runtime_version 2.0.0 is not supported"},
		{`runtime_version = "latest"`, `runtime_version "latest"`},
		{`indent = -1`, "indent must not be negative"},
		{`indent = "four"`, "indent"},
	}
	for _, test := range tests {
		_, err := ParseConfig(test.text)
		be.True(t, err != nil)
		if !strings.Contains(err.Error(), test.want) {
			t.Fatalf("%q: expected error containing %q, got %q", test.text, test.want, err)
		}
	}
}

func TestConfigBuiltinErrors(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"[[builtin]]\nname = \"f\"\n[[builtin.param]]\nname = \"n\"\ncomputed = \"len(xs)\"\n[[builtin.param]]\nname = \"xs\"\nvariadic = true\n",
			"computed default reads xs, which is not an earlier parameter"},
		{"[[builtin]]\nname = \"f\"\n[[builtin.param]]\nname = \"n\"\ncomputed = \"count(xs)\"\n",
			`unsupported computed default "count(xs)"`},
		{"[[builtin]]\nname = \"f\"\n[[builtin.param]]\nname = \"a\"\nvariadic = true\n[[builtin.param]]\nname = \"b\"\nvariadic = true\n",
			"MultipleVariadic"},
	}
	for _, test := range tests {
		cfg, err := ParseConfig(test.text)
		be.Err(t, err, nil)
		_, err = cfg.Options()
		be.True(t, err != nil)
		if !strings.Contains(err.Error(), test.want) {
			t.Fatalf("expected error containing %q, got %q", test.want, err)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFile)
	be.Err(t, os.WriteFile(path, []byte("indent = 3\n"), 0o644), nil)

	cfg, err := LoadConfig(path)
	be.Err(t, err, nil)
	be.Equal(t, cfg.Indent, 3)

	_, err = LoadConfig(filepath.Join(dir, "missing.toml"))
	be.True(t, err != nil)

	be.Err(t, os.WriteFile(path, []byte("indent = -3\n"), 0o644), nil)
	_, err = LoadConfig(path)
	be.True(t, err != nil)
	be.True(t, strings.HasPrefix(err.Error(), path+": "))
}
