// Package golden compares test output against checked-in golden files.
// Run tests with UPDATE_GOLDEN=1 to rewrite the golden files from actual
// output.
package golden

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

// Dir is the default golden file directory, relative to the test's package.
const Dir = "testdata/golden"

var (
	ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)
	oscRe  = regexp.MustCompile(`\x1b\]8;;[^\x1b]*\x1b\\`)
)

// Normalize strips ANSI escapes, normalizes line endings and removes
// trailing whitespace per line, so comparisons survive terminal styling.
func Normalize(s string) string {
	s = ansiRe.ReplaceAllString(s, "")
	s = oscRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

// Assert compares actual output against the named golden file, creating or
// updating it when UPDATE_GOLDEN=1 is set.
func Assert(t *testing.T, name, actual string) {
	t.Helper()

	path := filepath.Join(Dir, name+".golden")
	normalized := Normalize(actual)

	if os.Getenv("UPDATE_GOLDEN") == "1" {
		if err := os.MkdirAll(Dir, 0o755); err != nil {
			t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(normalized), 0o644); err != nil {
			t.Fatalf("failed to write golden file: %v", err)
		}
		t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("golden file not found: %s\nRun with UPDATE_GOLDEN=1 to create it.\nActual output:\n%s", path, normalized)
		}
		t.Fatalf("failed to read golden file: %v", err)
	}

	if string(expected) != normalized {
		t.Errorf("output mismatch for %s\n\nExpected:\n%s\n\nActual:\n%s\n\nRun with UPDATE_GOLDEN=1 to update.",
			name, string(expected), normalized)
	}
}
