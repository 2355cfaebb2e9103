package main

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/nalgeon/be"
	"github.com/pytoc/pytoc/sexy"
)

func TestSexyAllTests(t *testing.T) {
	testFiles, err := filepath.Glob("test/*_test.md")
	be.Err(t, err, nil)
	be.True(t, len(testFiles) > 0)

	for _, testFile := range testFiles {
		fileName := filepath.Base(testFile)
		testName := strings.TrimSuffix(fileName, ".md")

		t.Run(testName, func(t *testing.T) {
			content, err := os.ReadFile(testFile)
			be.Err(t, err, nil)

			testCases, err := sexy.ExtractTestCases(string(content))
			be.Err(t, err, nil)

			for _, tc := range testCases {
				t.Run(tc.Name, func(t *testing.T) {
					runSexyTestCase(t, tc)
				})
			}
		})
	}
}

func runSexyTestCase(t *testing.T, tc sexy.TestCase) {
	mod, err := Decode(tc.ParsedInput)
	be.Err(t, err, nil)

	output, compileErr := Compile(mod, DefaultOptions())
	normalized := normalizeTemps(output)

	for _, assertion := range tc.Assertions {
		switch assertion.Type {
		case sexy.AssertionTypeC:
			be.Err(t, compileErr, nil)
			be.Equal(t, strings.TrimRight(normalized, "\n"), assertion.Content)
		case sexy.AssertionTypeCContains:
			be.Err(t, compileErr, nil)
			assertContainsLines(t, normalized, assertion.Content)
		case sexy.AssertionTypeCompileError:
			if compileErr == nil {
				t.Fatalf("expected compile error containing %q, got output:\n%s", assertion.Content, output)
			}
			be.Equal(t, output, "")
			if !strings.Contains(compileErr.Error(), assertion.Content) {
				t.Fatalf("expected compile error containing %q, got %q", assertion.Content, compileErr.Error())
			}
		default:
			t.Fatalf("unknown assertion type %s", assertion.Type)
		}
	}
}

// assertContainsLines checks that every non-empty expected line occurs in
// output, in order, each on its own output line.
func assertContainsLines(t *testing.T, output, expected string) {
	t.Helper()
	lines := strings.Split(output, "\n")
	next := 0
	for _, want := range strings.Split(expected, "\n") {
		want = strings.TrimSpace(want)
		if want == "" {
			continue
		}
		found := false
		for next < len(lines) {
			line := strings.TrimSpace(lines[next])
			next++
			if strings.Contains(line, want) {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("line %q not found in order in output:\n%s", want, output)
		}
	}
}

var tempPattern = regexp.MustCompile(`\b(_[a-z_]*_)([0-9a-f]{8})\b`)

// normalizeTemps replaces generated temporary names with stable
// placeholders numbered by first appearance, so expectations do not depend
// on hash values.
func normalizeTemps(code string) string {
	seen := make(map[string]string)
	return tempPattern.ReplaceAllStringFunc(code, func(name string) string {
		if repl, ok := seen[name]; ok {
			return repl
		}
		m := tempPattern.FindStringSubmatch(name)
		repl := m[1] + "#" + strconv.Itoa(len(seen)+1)
		seen[name] = repl
		return repl
	})
}

func TestNormalizeTemps(t *testing.T) {
	code := "Value _list_items_0a1b2c3d[1] = {x};\nmake_list(1, _list_items_0a1b2c3d);\nValue _iter_deadbeef = y; _exc_root;"
	be.Equal(t, normalizeTemps(code),
		"Value _list_items_#1[1] = {x};\nmake_list(1, _list_items_#1);\nValue _iter_#2 = y; _exc_root;")
}
