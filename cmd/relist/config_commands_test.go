package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitWritesSample(t *testing.T) {
	env := newCLITestEnv(t)
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out := requireRunOK(t, env, "config", "init", "--path", target)
	requireContains(t, out, "Wrote sample configuration to")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}

	if _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config already exists")
	}

	out = requireRunOK(t, env, "config", "init", "--path", target, "--overwrite")
	requireContains(t, out, "Wrote sample configuration to")
}

func TestConfigValidateWithDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	env := newCLITestEnv(t)
	out := requireRunOK(t, env, "config", "validate")
	requireContains(t, out, "Config file did not exist; defaults were used")
	requireContains(t, out, "Configuration OK")
}
