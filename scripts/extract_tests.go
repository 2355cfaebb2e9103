package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type TestCase struct {
	Name       string
	Input      string
	Expected   string
	SourceFile string
}

// Extractor pairs serialized syntax trees with hand-checked C output and
// renders them as Markdown test cases.
type Extractor struct {
	cases []TestCase
}

func NewExtractor() *Extractor {
	return &Extractor{cases: make([]TestCase, 0)}
}

// extractFromDir collects every <name>.pyast in dir that has a matching
// <name>.c next to it.
func (e *Extractor) extractFromDir(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.pyast"))
	if err != nil {
		return err
	}

	for _, file := range files {
		if err := e.visitFile(file); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to process %s: %v\n", file, err)
		}
	}
	return nil
}

func (e *Extractor) visitFile(filename string) error {
	input, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	expected, err := os.ReadFile(strings.TrimSuffix(filename, ".pyast") + ".c")
	if err != nil {
		return err
	}

	tc := TestCase{
		Name:       e.generateTestName(filepath.Base(filename)),
		Input:      strings.TrimSpace(string(input)),
		Expected:   strings.TrimSpace(string(expected)),
		SourceFile: filepath.Base(filename),
	}
	if !e.isDuplicate(tc) {
		e.cases = append(e.cases, tc)
	}
	return nil
}

func (e *Extractor) isDuplicate(newTest TestCase) bool {
	for _, existing := range e.cases {
		if existing.Input == newTest.Input && existing.Expected == newTest.Expected {
			return true
		}
	}
	return false
}

// generateTestName turns "for_loop-sum.pyast" into "for loop sum".
func (e *Extractor) generateTestName(filename string) string {
	name := strings.TrimSuffix(filename, ".pyast")
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}

func (e *Extractor) generateSexyMarkdown(title string) string {
	if len(e.cases) == 0 {
		return "# No test cases found\n"
	}

	sort.Slice(e.cases, func(i, j int) bool {
		return e.cases[i].SourceFile < e.cases[j].SourceFile
	})

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	for _, tc := range e.cases {
		sb.WriteString(fmt.Sprintf("## Test: %s\n", tc.Name))
		sb.WriteString("```py-ast\n")
		sb.WriteString(tc.Input)
		sb.WriteString("\n```\n")
		sb.WriteString("```c\n")
		sb.WriteString(tc.Expected)
		sb.WriteString("\n```\n\n")
	}
	return sb.String()
}

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "Usage: go run ./scripts <samples-dir> <title>\n")
		os.Exit(1)
	}

	extractor := NewExtractor()
	if err := extractor.extractFromDir(os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(extractor.generateSexyMarkdown(os.Args[2]))
}
