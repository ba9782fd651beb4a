package main

import (
	"bytes"
	"strings"
	"testing"
)

func isolateEnvironment(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("AVID_LLM_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")
	return home
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommandShowsHelp(t *testing.T) {
	isolateEnvironment(t)
	output, err := runCommand(t)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	for _, want := range []string{"avid", "queue", "detect", "eval"} {
		if !strings.Contains(output, want) {
			t.Fatalf("help output missing %q:\n%s", want, output)
		}
	}
}

func TestUnknownCommandFails(t *testing.T) {
	isolateEnvironment(t)
	if _, err := runCommand(t, "transmogrify"); err == nil {
		t.Fatal("expected error for unknown command")
	}
}
