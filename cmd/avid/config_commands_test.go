package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitWritesSample(t *testing.T) {
	isolateEnvironment(t)
	target := filepath.Join(t.TempDir(), "config.toml")

	output, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(output, target) {
		t.Fatalf("output does not mention target path:\n%s", output)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample config: %v", err)
	}
	if !strings.Contains(string(data), "[silence]") {
		t.Fatalf("sample config missing silence section:\n%s", data)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config already exists")
	}
	if _, err := runCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite failed: %v", err)
	}
}

func TestConfigValidateWithDefaults(t *testing.T) {
	isolateEnvironment(t)
	output, err := runCommand(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate failed: %v", err)
	}
	if !strings.Contains(output, "Configuration valid") {
		t.Fatalf("unexpected output:\n%s", output)
	}
	if !strings.Contains(output, "defaults were used") {
		t.Fatalf("expected defaults notice:\n%s", output)
	}
}

func TestConfigShowRedactsAPIKey(t *testing.T) {
	isolateEnvironment(t)
	t.Setenv("AVID_LLM_API_KEY", "secret-token")

	output, err := runCommand(t, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if strings.Contains(output, "secret-token") {
		t.Fatalf("api key leaked into output:\n%s", output)
	}
	if !strings.Contains(output, "api_key = '(set)'") && !strings.Contains(output, `api_key = "(set)"`) {
		t.Fatalf("redaction marker missing:\n%s", output)
	}
	if !strings.Contains(output, "[export]") {
		t.Fatalf("expected export section:\n%s", output)
	}
}
