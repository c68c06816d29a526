package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "fuzzgen.toml")

	content := `
recondition = true
loop_limit = 64
max_expression_depth = 10
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	f, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if f.Recondition == nil || *f.Recondition != true {
		t.Errorf("Recondition: got %v, want true", f.Recondition)
	}
	if f.LoopLimit == nil || *f.LoopLimit != 64 {
		t.Errorf("LoopLimit: got %v, want 64", f.LoopLimit)
	}
	if f.MaxExpressionDepth == nil || *f.MaxExpressionDepth != 10 {
		t.Errorf("MaxExpressionDepth: got %v, want 10", f.MaxExpressionDepth)
	}
}

func TestLoadSearchesParentDirs(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "project", "shaders")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatalf("failed to create dirs: %v", err)
	}

	configPath := filepath.Join(tmpDir, "project", "fuzzgen.toml")
	if err := os.WriteFile(configPath, []byte("loop_limit = 8\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	f, foundPath, err := Load(subDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if f == nil {
		t.Fatal("expected config, got nil")
	}
	if foundPath != configPath {
		t.Errorf("found config at %s, expected %s", foundPath, configPath)
	}
	if f.LoopLimit == nil || *f.LoopLimit != 8 {
		t.Errorf("LoopLimit: got %v, want 8", f.LoopLimit)
	}
}

func TestLoadNoConfig(t *testing.T) {
	tmpDir := t.TempDir()

	f, path, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if f != nil {
		t.Errorf("expected nil config, got %v", f)
	}
	if path != "" {
		t.Errorf("expected empty path, got %s", path)
	}
}

func TestToOptionsDefaults(t *testing.T) {
	loopLimit := 32
	f := &File{LoopLimit: &loopLimit}

	opts := f.ToOptions()

	if opts.LoopLimit != 32 {
		t.Errorf("LoopLimit: got %d, want 32", opts.LoopLimit)
	}
	// Unset fields fall back to DefaultOptions.
	if opts.MaxExpressionDepth != DefaultOptions().MaxExpressionDepth {
		t.Errorf("MaxExpressionDepth: got %d, want default %d", opts.MaxExpressionDepth, DefaultOptions().MaxExpressionDepth)
	}
}

func TestMergeCLIOverridesFile(t *testing.T) {
	fileRecondition := false
	f := &File{Recondition: &fileRecondition}

	cliRecondition := true
	opts := f.Merge(CLIOverrides{Recondition: &cliRecondition})

	if !opts.Recondition {
		t.Errorf("Recondition: got false, want true (CLI override)")
	}
}

func TestValidateRejectsModuleScopeConstants(t *testing.T) {
	opts := DefaultOptions()
	opts.ModuleScopeConstants = true

	if err := Validate(opts); err != ErrUnsupportedOption {
		t.Errorf("Validate: got %v, want ErrUnsupportedOption", err)
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := Validate(DefaultOptions()); err != nil {
		t.Errorf("Validate(DefaultOptions()): got %v, want nil", err)
	}
}
