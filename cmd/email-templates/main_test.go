package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "email-templates")
	var out, errOut bytes.Buffer
	if code := run(dir, &out, &errOut); code != 0 {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	if n := strings.Count(out.String(), "wrote "); n != 6 {
		t.Errorf("reported %d files:\n%s", n, out.String())
	}
}

func TestRunFailure(t *testing.T) {
	file := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	var out, errOut bytes.Buffer
	if code := run(filepath.Join(file, "x"), &out, &errOut); code != 1 {
		t.Errorf("exit = %d, want 1", code)
	}
	if !strings.Contains(errOut.String(), "email-templates:") {
		t.Errorf("stderr = %q", errOut.String())
	}
}
