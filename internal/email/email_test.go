package email

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTemplatesNames(t *testing.T) {
	want := []string{"confirm-signup", "invite-user", "magic-link", "change-email", "reset-password", "reauthentication"}
	got := Templates()
	if len(got) != len(want) {
		t.Fatalf("got %d templates, want %d", len(got), len(want))
	}
	for i, tpl := range got {
		if tpl.Name != want[i] {
			t.Errorf("template %d = %q, want %q", i, tpl.Name, want[i])
		}
	}
}

func TestRenderKeepsPlaceholders(t *testing.T) {
	for _, tpl := range Templates() {
		html, err := Render(tpl)
		if err != nil {
			t.Fatalf("%s: %v", tpl.Name, err)
		}
		s := string(html)
		if !strings.HasPrefix(s, "<!DOCTYPE html>") {
			t.Errorf("%s: missing doctype", tpl.Name)
		}
		if !strings.Contains(s, tpl.Heading) {
			t.Errorf("%s: missing heading", tpl.Name)
		}
		if strings.Contains(s, "[[") {
			t.Errorf("%s: unrendered action", tpl.Name)
		}
		placeholder := ConfirmationURL
		if tpl.Code != "" {
			placeholder = Token
		}
		if !strings.Contains(s, placeholder) {
			t.Errorf("%s: placeholder %q not emitted literally", tpl.Name, placeholder)
		}
	}
}

func TestRenderButtonHref(t *testing.T) {
	html, err := Render(Templates()[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(html), `href="{{ .ConfirmationURL }}"`) {
		t.Errorf("href not literal:\n%s", html)
	}
}

func TestChangeEmailMentionsNewAddress(t *testing.T) {
	for _, tpl := range Templates() {
		if tpl.Name != "change-email" {
			continue
		}
		html, _ := Render(tpl)
		if !strings.Contains(string(html), NewEmail) {
			t.Error("change-email should mention the new address placeholder")
		}
	}
}

func TestWriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), DefaultDir)
	paths, err := WriteAll(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != len(Templates()) {
		t.Fatalf("wrote %d files", len(paths))
	}
	data, err := os.ReadFile(filepath.Join(dir, "magic-link.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Sign in to Lockstep") {
		t.Error("magic-link.html has wrong content")
	}
}

func TestWriteAllBadDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := WriteAll(filepath.Join(file, "out")); err == nil {
		t.Error("expected error when dir is under a regular file")
	}
}
