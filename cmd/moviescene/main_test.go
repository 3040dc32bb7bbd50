package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"moviescene/internal/testsupport"
)

func TestCompileCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "compile", env.scenePath, "--json")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	view := decodeJSON[compileView](t, out)
	if view.Sequence != "main" {
		t.Fatalf("sequence = %q", view.Sequence)
	}
	if view.Tracks != 3 {
		t.Fatalf("tracks = %d, want 3", view.Tracks)
	}
	if len(view.Entries) == 0 {
		t.Fatal("compiled field is empty")
	}
}

func TestCompileCommandUnknownSequence(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env.configPath, "compile", env.scenePath, "-s", "missing")
	if err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected unknown sequence error, got %v", err)
	}
}

func TestEvaluateCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "evaluate", env.scenePath, "--from", "2", "--to", "7", "--step", "5", "--json")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	view := decodeJSON[evaluateView](t, out)
	if view.Metrics.Frames != 2 {
		t.Fatalf("frames = %d, want 2", view.Metrics.Frames)
	}
	if len(view.Frames) != 3 {
		t.Fatalf("frame views = %d, want evaluated frames plus finish", len(view.Frames))
	}
	if !hasTrace(view.Frames[0].Trace, "evaluate", "a") || hasTrace(view.Frames[0].Trace, "evaluate", "b") {
		t.Fatalf("frame 2 trace = %+v", view.Frames[0].Trace)
	}
	if !hasTrace(view.Frames[1].Trace, "evaluate", "b") {
		t.Fatalf("frame 7 trace = %+v", view.Frames[1].Trace)
	}
	finish := view.Frames[2].Trace
	if !hasTrace(finish, "teardown", "a") || !hasTrace(finish, "teardown", "b") {
		t.Fatalf("finish trace = %+v", finish)
	}
	if _, ok := view.Objects["cube"]; !ok {
		t.Fatalf("objects = %v", view.Objects)
	}
}

func TestEvaluateCommandRejectsBadFlags(t *testing.T) {
	env := setupCLITestEnv(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "step", args: []string{"--step", "0"}, want: "--step"},
		{name: "status", args: []string{"--status", "rewinding"}, want: "rewinding"},
		{name: "override", args: []string{"--override", "nowhere"}, want: "nowhere"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"evaluate", env.scenePath}, tt.args...)
			_, _, err := runCLI(t, env.configPath, args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestEvaluateCommandTable(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "evaluate", env.scenePath, "--from", "2", "--to", "2")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	for _, want := range []string{"Frame", "Evaluate", "cube", "Frames: 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPersistentTemplatesListedAndCleared(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithPersistentTemplates())

	if _, _, err := runCLI(t, env.configPath, "evaluate", env.scenePath, "--from", "0", "--to", "10", "--step", "5"); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	out, _, err := runCLI(t, env.configPath, "store", "list", "--json")
	if err != nil {
		t.Fatalf("store list: %v", err)
	}
	stored := decodeJSON[[]storedTemplateView](t, out)
	if len(stored) != 1 || stored[0].Name != "main" {
		t.Fatalf("stored templates = %+v", stored)
	}
	if stored[0].Tracks != 3 || stored[0].Entries == 0 {
		t.Fatalf("stored snapshot = %+v", stored[0])
	}

	out, _, err = runCLI(t, env.configPath, "store", "clear")
	if err != nil {
		t.Fatalf("store clear: %v", err)
	}
	if !strings.Contains(out, "Removed 1 templates") {
		t.Fatalf("clear output = %q", out)
	}
	out, _, err = runCLI(t, env.configPath, "store", "list")
	if err != nil {
		t.Fatalf("store list: %v", err)
	}
	if !strings.Contains(out, "No templates stored") {
		t.Fatalf("list output = %q", out)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	target := filepath.Join(base, "nested", "config.toml")

	out, _, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("init output = %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}

	if _, _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
	if _, _, err := runCLI(t, "", "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, target, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	for _, want := range []string{"Config path: " + target, "Template storage: Ephemeral", "Configuration valid"} {
		if !strings.Contains(out, want) {
			t.Fatalf("validate output missing %q:\n%s", want, out)
		}
	}
}
