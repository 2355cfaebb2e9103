package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nalgeon/be"
	"github.com/pytoc/pytoc/sexy"
)

func TestExtractFromDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		be.Err(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644), nil)
	}
	write("b_empty-module.pyast", "(module)\n")
	write("b_empty-module.c", "int main() {\n    return 0;\n}\n")
	write("a_pass.pyast", "(module (pass))")
	write("a_pass.c", "int main() {\n    return 0;\n}")
	write("orphan.pyast", "(module)")

	e := NewExtractor()
	be.Err(t, e.extractFromDir(dir), nil)
	be.Equal(t, 2, len(e.cases))

	markdown := e.generateSexyMarkdown("Samples")
	cases, err := sexy.ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, 2, len(cases))
	be.Equal(t, "a pass", cases[0].Name)
	be.Equal(t, "b empty module", cases[1].Name)
	be.Equal(t, sexy.InputTypePyAST, cases[0].InputType)
	be.Equal(t, 1, len(cases[1].Assertions))
	be.Equal(t, sexy.AssertionTypeC, cases[1].Assertions[0].Type)
	be.Equal(t, "int main() {\n    return 0;\n}", cases[1].Assertions[0].Content)
}

func TestExtractorSkipsDuplicates(t *testing.T) {
	e := NewExtractor()
	e.cases = append(e.cases, TestCase{Name: "x", Input: "(module)", Expected: "int main() {}"})
	be.True(t, e.isDuplicate(TestCase{Name: "y", Input: "(module)", Expected: "int main() {}"}))
	be.True(t, !e.isDuplicate(TestCase{Name: "y", Input: "(module (pass))", Expected: "int main() {}"}))
}

func TestEmptyMarkdown(t *testing.T) {
	be.Equal(t, "# No test cases found\n", NewExtractor().generateSexyMarkdown("Samples"))
}
