package consolepromptadapter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConsolePrompter_Confirm(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  yes  \r\n", true},
		{"n\n", false},
		{"\n", false},
		{"sure\n", false},
		{"", false},
		{"y", true},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		p := New(strings.NewReader(tt.input), &out)

		if got := p.Confirm("Flash boot?"); got != tt.expected {
			t.Errorf("Confirm with input %q: expected %v, got %v", tt.input, tt.expected, got)
		}
		if out.String() != "Flash boot? [y/N]: " {
			t.Errorf("Unexpected prompt %q", out.String())
		}
	}
}

func TestConsolePrompter_Confirm_AssumeYes(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader(""), &out)
	p.AssumeYes = true

	if !p.Confirm("Continue?") {
		t.Error("Expected AssumeYes to confirm")
	}
	if out.String() != "Continue? [y/N]: y\n" {
		t.Errorf("Unexpected output %q", out.String())
	}
}

func TestConsolePrompter_PromptText(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("product\n\n"), &out)

	text, ok := p.PromptText("Variable", "all")
	if !ok || text != "product" {
		t.Errorf("Expected (product, true), got (%q, %v)", text, ok)
	}

	text, ok = p.PromptText("Variable", "all")
	if !ok || text != "all" {
		t.Errorf("Expected default (all, true), got (%q, %v)", text, ok)
	}

	text, ok = p.PromptText("Variable", "all")
	if ok {
		t.Errorf("Expected cancellation at end of input, got %q", text)
	}

	if !strings.HasPrefix(out.String(), "Variable [all]: ") {
		t.Errorf("Unexpected prompt %q", out.String())
	}
}

func TestConsolePrompter_PromptText_NoDefault(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("unlock\n"), &out)

	text, ok := p.PromptText("Type unlock", "")
	if !ok || text != "unlock" {
		t.Errorf("Expected (unlock, true), got (%q, %v)", text, ok)
	}
	if out.String() != "Type unlock: " {
		t.Errorf("Unexpected prompt %q", out.String())
	}
}

func TestConsolePrompter_ChooseFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "boot.img")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	input := strings.Join([]string{file, dir, filepath.Join(dir, "missing.img"), ""}, "\n") + "\n"
	var out bytes.Buffer
	p := New(strings.NewReader(input), &out)

	if path, ok := p.ChooseFile("Image"); !ok || path != file {
		t.Errorf("Expected (%s, true), got (%q, %v)", file, path, ok)
	}
	if _, ok := p.ChooseFile("Image"); ok {
		t.Error("Expected a directory to be rejected as a file")
	}
	if _, ok := p.ChooseFile("Image"); ok {
		t.Error("Expected a missing path to be rejected")
	}
	if _, ok := p.ChooseFile("Image"); ok {
		t.Error("Expected an empty answer to cancel")
	}
}

func TestConsolePrompter_ChooseFolder(t *testing.T) {
	dir := t.TempDir()

	var out bytes.Buffer
	p := New(strings.NewReader(dir+"\n"), &out)

	if path, ok := p.ChooseFolder("Backup folder"); !ok || path != dir {
		t.Errorf("Expected (%s, true), got (%q, %v)", dir, path, ok)
	}
}
