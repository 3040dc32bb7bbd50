package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteScene writes a scene document into a fresh temp directory and
// returns its path. Leading indentation is dropped from every line so
// documents can be written inline in tests.
func WriteScene(t testing.TB, doc string) string {
	t.Helper()

	lines := strings.Split(doc, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimLeft(line, " \t")
	}
	return WriteFile(t, filepath.Join(t.TempDir(), "scene.toml"), strings.Join(lines, "\n"))
}

// SimpleScene is a single sequence with two overlapping trace tracks and a
// property track animating "cube".
const SimpleScene = `
root = "main"

[[sequence]]
name = "main"
start = 0
end = 20

[[sequence.track]]
name = "a"
kind = "trace"
priority = 10

[[sequence.track.section]]
name = "a"
start = 0
end = 10

[[sequence.track]]
name = "b"
kind = "trace"

[[sequence.track.section]]
name = "b"
start = 5
end = 15

[[sequence.binding]]
name = "cube"
props = { x = 0 }

[[sequence.binding.track]]
name = "x"
kind = "property"

[[sequence.binding.track.section]]
name = "x"
start = 0
end = 20
property = "x"
keys = [{ time = 0, value = 0 }, { time = 20, value = 40 }]
`
