package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := newLogger(&buf, "WARN", "json")
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	if log.GetLevel() != zerolog.WarnLevel {
		t.Errorf("level = %v, want warn", log.GetLevel())
	}
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), `"message":"shown"`) {
		t.Errorf("log output = %q", buf.String())
	}

	if _, err := newLogger(&buf, "loud", "console"); err == nil {
		t.Error("newLogger(loud) error = nil")
	}
	if _, err := newLogger(&buf, "info", "xml"); err == nil {
		t.Error("newLogger(xml) error = nil")
	}
}

func TestRootRejectsArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"image.fits"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil {
		t.Fatal("Execute() with positional argument error = nil")
	}
}

func TestRootRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	dir := t.TempDir()
	write := func(name, content string, mode os.FileMode) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), mode); err != nil {
			t.Fatal(err)
		}
		return p
	}
	tool := write("fake-sex", `#!/bin/sh
[ "$1" = "--version" ] && { echo "SExtractor version 2.28.0"; exit 0; }
case "$1" in *bad*) echo "bad image" >&2; exit 1;; esac
exit 0
`, 0o755)
	cfg := write("default.sex", "", 0o644)
	param := write("default.param", "", 0o644)
	write("good.fits", "x", 0o644)
	write("good_unc.fits", "x", 0o644)
	write("bad.fit", "x", 0o644)
	settings := write("sexbatch.yaml", "skip_weights: true\noutput_dir: "+filepath.Join(dir, "from-yaml")+"\n", 0o644)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{
		"--settings", settings,
		"--dir", dir,
		"--tool", tool,
		"--config-file", cfg,
		"--param-file", param,
		"--output-dir", filepath.Join(dir, "cats"),
	})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out.String(), "SUMMARY: 1/2 images processed successfully") {
		t.Errorf("output = %q", out.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "cats")); err != nil {
		t.Errorf("flag output dir not created: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "from-yaml")); err == nil {
		t.Error("settings output dir used despite --output-dir")
	}
}

func TestRootPreconditionFails(t *testing.T) {
	dir := t.TempDir()
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{
		"--settings", filepath.Join(dir, "none.yaml"),
		"--dir", dir,
		"--tool", filepath.Join(dir, "missing-sex"),
	})
	if err := cmd.Execute(); err == nil {
		t.Fatal("Execute() error = nil, want precondition error")
	}
}
