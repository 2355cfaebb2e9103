package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// SourceExt is the extension of serialized syntax trees.
const SourceExt = ".pyast"

func showUsage() {
	fmt.Fprintf(os.Stderr, `pytoc - translates Python syntax trees to C

Usage:
    pytoc <command> [arguments]

Commands:
    build <file>...  Translate .pyast files to .c files
    check <file>...  Translate without writing output
    dump <file>      Print the decoded syntax tree in canonical form
    watch <file>...  Rebuild whenever an input changes
    cc <file>        Translate and compile with a C compiler
    help             Show this help message

Examples:
    pytoc build -o hello.c hello.pyast
    pytoc build -config pytoc.toml src/*.pyast
    pytoc cc -cc gcc -o hello hello.pyast

Use "pytoc <command> -h" for more information about a command.
`)
}

// commonFlags are shared by every command that compiles.
type commonFlags struct {
	config  *string
	verbose *bool
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		config:  fs.String("config", "", "Configuration file (default: "+ConfigFile+" next to the first input, if present)"),
		verbose: fs.Bool("v", false, "Trace every translated node"),
	}
}

// options loads configuration for the given inputs.
func (cf commonFlags) options(inputs []string) (Options, error) {
	path := *cf.config
	if path == "" && len(inputs) > 0 {
		candidate := filepath.Join(filepath.Dir(inputs[0]), ConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	opts := DefaultOptions()
	if path != "" {
		cfg, err := LoadConfig(path)
		if err != nil {
			return Options{}, err
		}
		if opts, err = cfg.Options(); err != nil {
			return Options{}, err
		}
	}
	if *cf.verbose {
		opts.Logger = log.New(os.Stderr, "pytoc: ", 0)
	}
	return opts, nil
}

func usageFunc(fs *flag.FlagSet, usage, summary string) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "Usage: %s\n", usage)
		fmt.Fprintf(os.Stderr, "%s\n\n", summary)
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}
}

// compileFile reads, decodes and translates one input.
func compileFile(filename string, opts Options) (string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", filename, err)
	}
	mod, err := ParseModule(string(data))
	if err != nil {
		return "", fmt.Errorf("%s:%w", filename, err)
	}
	out, err := Compile(mod, opts)
	if err != nil {
		return "", fmt.Errorf("%s: %w", filename, err)
	}
	return out, nil
}

func outputName(filename string) string {
	return strings.TrimSuffix(filename, SourceExt) + ".c"
}

// buildFiles translates inputs concurrently. Each input is independent; the
// first failure cancels the remaining ones.
func buildFiles(ctx context.Context, inputs []string, output string, opts Options, write bool) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, filename := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			code, err := compileFile(filename, opts)
			if err != nil {
				return err
			}
			if !write {
				return nil
			}
			out := output
			if out == "" {
				out = outputName(filename)
			}
			if err := os.WriteFile(out, []byte(code), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func buildCommand(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	output := fs.String("o", "", "Output file path (default: <input>.c; single input only)")
	cf := addCommonFlags(fs)
	fs.Usage = usageFunc(fs, "pytoc build [-o output] [-config file] [-v] <file>...", "Translate .pyast files to C")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: expected at least one file argument\n")
		fs.Usage()
		os.Exit(1)
	}
	if *output != "" && fs.NArg() > 1 {
		fmt.Fprintf(os.Stderr, "Error: -o requires exactly one input\n")
		os.Exit(1)
	}

	opts, err := cf.options(fs.Args())
	if err != nil {
		exitWithError(err)
	}
	if err := buildFiles(context.Background(), fs.Args(), *output, opts, true); err != nil {
		exitWithError(err)
	}
	for _, filename := range fs.Args() {
		out := *output
		if out == "" {
			out = outputName(filename)
		}
		fmt.Printf("Generated %s\n", out)
	}
}

func checkCommand(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	cf := addCommonFlags(fs)
	fs.Usage = usageFunc(fs, "pytoc check [-config file] [-v] <file>...", "Translate .pyast files without writing output")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: expected at least one file argument\n")
		fs.Usage()
		os.Exit(1)
	}

	opts, err := cf.options(fs.Args())
	if err != nil {
		exitWithError(err)
	}
	if err := buildFiles(context.Background(), fs.Args(), "", opts, false); err != nil {
		exitWithError(err)
	}
	for _, filename := range fs.Args() {
		fmt.Printf("%s: no errors found\n", filename)
	}
}

func dumpCommand(args []string) {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	fs.Usage = usageFunc(fs, "pytoc dump <file>", "Print the decoded syntax tree in canonical form")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one file argument\n")
		fs.Usage()
		os.Exit(1)
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		exitWithError(err)
	}
	mod, err := ParseModule(string(data))
	if err != nil {
		exitWithError(fmt.Errorf("%s:%w", fs.Arg(0), err))
	}
	fmt.Println(ToSExpr(mod))
}

func watchCommand(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	cf := addCommonFlags(fs)
	fs.Usage = usageFunc(fs, "pytoc watch [-config file] [-v] <file>...", "Rebuild .c files whenever an input changes")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: expected at least one file argument\n")
		fs.Usage()
		os.Exit(1)
	}

	opts, err := cf.options(fs.Args())
	if err != nil {
		exitWithError(err)
	}
	w := &Watcher{
		Inputs:  fs.Args(),
		Options: opts,
		OnBuild: func(filename string, err error) {
			if err != nil {
				reportError(os.Stderr, err)
				return
			}
			fmt.Printf("Generated %s\n", outputName(filename))
		},
	}
	if err := w.Run(context.Background()); err != nil {
		exitWithError(err)
	}
}

func ccCommand(args []string) {
	fs := flag.NewFlagSet("cc", flag.ExitOnError)
	compiler := fs.String("cc", "tcc", "C compiler to invoke")
	output := fs.String("o", "", "Executable path (default: <input> without extension)")
	cf := addCommonFlags(fs)
	fs.Usage = usageFunc(fs, "pytoc cc [-cc compiler] [-o output] [-config file] [-v] <file>", "Translate a .pyast file and compile the result")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one file argument\n")
		fs.Usage()
		os.Exit(1)
	}

	filename := fs.Arg(0)
	opts, err := cf.options(fs.Args())
	if err != nil {
		exitWithError(err)
	}
	code, err := compileFile(filename, opts)
	if err != nil {
		exitWithError(err)
	}

	exe := *output
	if exe == "" {
		exe = strings.TrimSuffix(filename, SourceExt)
	}
	if err := runCompiler(*compiler, code, exe); err != nil {
		exitWithError(err)
	}
	fmt.Printf("Generated %s\n", exe)
}

// runCompiler writes code to a temporary file and compiles it to exe.
func runCompiler(compiler, code, exe string) error {
	tmp, err := os.CreateTemp("", "pytoc-*.c")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(code); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	cmd := exec.Command(compiler, "-o", exe, tmp.Name())
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w\n%s", compiler, err, out)
	}
	return nil
}

// reportError prints err, highlighting compile errors on a terminal.
func reportError(w io.Writer, err error) {
	color := false
	if f, ok := w.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	fmt.Fprintln(w, formatError(err, color))
}

func formatError(err error, color bool) string {
	var ce *CompileError
	if !color || !errors.As(err, &ce) {
		return "Error: " + err.Error()
	}
	const red, reset = "\x1b[31;1m", "\x1b[0m"
	msg := err.Error()
	kind := string(ce.Kind)
	if i := strings.Index(msg, kind+":"); i >= 0 {
		msg = msg[:i] + red + kind + reset + msg[i+len(kind):]
	}
	return "Error: " + msg
}

func exitWithError(err error) {
	reportError(os.Stderr, err)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "build":
		buildCommand(args)
	case "check":
		checkCommand(args)
	case "dump":
		dumpCommand(args)
	case "watch":
		watchCommand(args)
	case "cc":
		ccCommand(args)
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		showUsage()
		os.Exit(1)
	}
}
