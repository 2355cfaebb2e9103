package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
)

// supportedRuntime is the range of support-library versions whose calling
// conventions the generators emit.
const supportedRuntime = ">= 1.0.0, < 2.0.0"

// ConfigFile is the name looked up next to the sources when -config is not
// given.
const ConfigFile = "pytoc.toml"

// Config is the contents of a pytoc.toml file.
type Config struct {
	RuntimeDir       string          `toml:"runtime_dir"`
	RuntimeVersion   string          `toml:"runtime_version"`
	Indent           int             `toml:"indent"`
	ReraiseUnmatched *bool           `toml:"reraise_unmatched"`
	Builtins         []BuiltinConfig `toml:"builtin"`
}

// BuiltinConfig declares an extra support-library function.
type BuiltinConfig struct {
	Name   string        `toml:"name"`
	Lib    string        `toml:"lib"`
	Callee string        `toml:"callee"`
	Void   bool          `toml:"void"`
	Params []ParamConfig `toml:"param"`
}

type ParamConfig struct {
	Name     string `toml:"name"`
	Default  string `toml:"default"`
	Computed string `toml:"computed"`
	Variadic bool   `toml:"variadic"`
}

// LoadConfig reads and validates a configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := ParseConfig(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes TOML configuration text.
func ParseConfig(text string) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	if err := cfg.checkRuntime(); err != nil {
		return nil, err
	}
	if cfg.Indent < 0 {
		return nil, fmt.Errorf("indent must not be negative, got %d", cfg.Indent)
	}
	return &cfg, nil
}

func (cfg *Config) checkRuntime() error {
	if cfg.RuntimeVersion == "" {
		return nil
	}
	v, err := semver.NewVersion(cfg.RuntimeVersion)
	if err != nil {
		return fmt.Errorf("runtime_version %q: %w", cfg.RuntimeVersion, err)
	}
	c, err := semver.NewConstraint(supportedRuntime)
	if err != nil {
		return err
	}
	if !c.Check(v) {
		return fmt.Errorf("runtime_version %s is not supported (need %s)", v, supportedRuntime)
	}
	return nil
}

// Options converts the configuration into compiler options. Builtins
// declared in the file extend the default table.
func (cfg *Config) Options() (Options, error) {
	opts := DefaultOptions()
	opts.RuntimeDir = cfg.RuntimeDir
	if cfg.Indent > 0 {
		opts.IndentWidth = cfg.Indent
	}
	if cfg.ReraiseUnmatched != nil {
		opts.ReraiseUnmatched = *cfg.ReraiseUnmatched
	}
	if len(cfg.Builtins) == 0 {
		return opts, nil
	}

	table := DefaultBuiltins().Clone()
	for _, bc := range cfg.Builtins {
		b, err := bc.builtin()
		if err != nil {
			return Options{}, err
		}
		if err := table.Add(b); err != nil {
			return Options{}, fmt.Errorf("builtin %s: %w", bc.Name, err)
		}
	}
	opts.Builtins = table
	return opts, nil
}

func (bc BuiltinConfig) builtin() (Builtin, error) {
	b := Builtin{Name: bc.Name, Lib: bc.Lib, Callee: bc.Callee, Void: bc.Void}
	if b.Callee == "" {
		b.Callee = bc.Name
	}
	declared := make(map[string]bool)
	for _, pc := range bc.Params {
		p := BuiltinParam{Name: pc.Name, Default: pc.Default, Variadic: pc.Variadic}
		if pc.Computed != "" {
			ref, fn, err := parseComputed(pc.Computed)
			if err != nil {
				return Builtin{}, fmt.Errorf("builtin %s param %s: %w", bc.Name, pc.Name, err)
			}
			if !declared[ref] {
				return Builtin{}, fmt.Errorf("builtin %s param %s: computed default reads %s, which is not an earlier parameter", bc.Name, pc.Name, ref)
			}
			p.Computed = fn
		}
		declared[pc.Name] = true
		b.Params = append(b.Params, p)
	}
	return b, nil
}
