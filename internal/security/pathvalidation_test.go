package security

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	safeDir := filepath.Join(tmpDir, "out")
	unsafeDir := filepath.Join(tmpDir, "elsewhere")
	if err := os.MkdirAll(safeDir, 0755); err != nil {
		t.Fatalf("Failed to create safe directory: %v", err)
	}
	if err := os.MkdirAll(unsafeDir, 0755); err != nil {
		t.Fatalf("Failed to create unsafe directory: %v", err)
	}
	symlinkPath := filepath.Join(safeDir, "evil-symlink")
	if err := os.Symlink(unsafeDir, symlinkPath); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	tests := []struct {
		name      string
		filePath  string
		safeDir   string
		wantError bool
	}{
		{"file in directory", filepath.Join(safeDir, "lamp.ldt"), safeDir, false},
		{"nested file", filepath.Join(safeDir, "sub", "lamp.ies"), safeDir, false},
		{"dot-dot escape", filepath.Join(safeDir, "..", "lamp.ldt"), safeDir, true},
		{"relative escape", "../../../etc/passwd", safeDir, true},
		{"absolute outside", "/etc/passwd", safeDir, true},
		{"through symlink", filepath.Join(symlinkPath, "lamp.ldt"), safeDir, true},
		{"symlink itself", symlinkPath, safeDir, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.filePath, tt.safeDir)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidatePathWithinDirectory() error = %v, wantError %v", err, tt.wantError)
			}
			if err != nil && !errors.Is(err, ErrOutsideDirectory) {
				t.Errorf("error %v does not wrap ErrOutsideDirectory", err)
			}
		})
	}
}

func TestValidatePathMissingSafeDir(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent")
	if err := ValidatePathWithinDirectory(filepath.Join(missing, "x.ldt"), missing); err == nil {
		t.Error("Expected error for missing safe directory")
	}
}

func TestWithinDirectory(t *testing.T) {
	tests := []struct {
		path, dir string
		want      bool
	}{
		{"/out/a.ldt", "/out", true},
		{"/out/sub/../a.ldt", "/out", true},
		{"/out", "/out", true},
		{"/out/../a.ldt", "/out", false},
		{"/outside/a.ldt", "/out", false},
		{"out/a.ies", "out", true},
		{"a.ies", "out", false},
		{"..a/b", ".", true},
	}
	for _, tt := range tests {
		if got := WithinDirectory(tt.path, tt.dir); got != tt.want {
			t.Errorf("WithinDirectory(%q, %q) = %v, want %v", tt.path, tt.dir, got, tt.want)
		}
	}
}

func TestJoinWithin(t *testing.T) {
	got, err := JoinWithin("/out", "sub/a.ldt")
	if err != nil || got != filepath.Join("/out", "sub", "a.ldt") {
		t.Errorf("JoinWithin = %q, %v", got, err)
	}
	if _, err := JoinWithin("/out", "../../etc/passwd"); !errors.Is(err, ErrOutsideDirectory) {
		t.Errorf("Expected ErrOutsideDirectory, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"":                        "unknown",
		"Downlight 200":           "Downlight_200",
		"DL-100/rev.2":            "DL-100_rev.2",
		"../../etc":               "etc",
		"__odd__name__":           "odd__name",
		"Lumière  Ø 60 cm":        "Lumi_re_60_cm",
		"...":                     "unknown",
		"ACME_LED_module_4000K.x": "ACME_LED_module_4000K.x",
	}
	for in, want := range tests {
		if got := SanitizeFilename(in); got != want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
