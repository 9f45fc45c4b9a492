package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestDefaultPassesValidation(t *testing.T) {
	cfg := Default()
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		t.Errorf("Default() fails its own validation: %v", err)
	}
}

func TestLoadWithNoConfigFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.General.PasswdFile != "/etc/passwd" {
		t.Errorf("PasswdFile = %q, want default", cfg.General.PasswdFile)
	}
	if cfg.Bus.ServiceName != "org.O1.SecurityAccounts.gUserManagement" {
		t.Errorf("ServiceName = %q, want default", cfg.Bus.ServiceName)
	}
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gumd.yaml")
	content := "general:\n  passwd_file: /tmp/passwd\n  uid_min: 5000\n  uid_max: 65000\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.General.PasswdFile != "/tmp/passwd" {
		t.Errorf("PasswdFile = %q, want /tmp/passwd", cfg.General.PasswdFile)
	}
	if cfg.General.UIDMin != 5000 {
		t.Errorf("UIDMin = %d, want 5000", cfg.General.UIDMin)
	}
	// Fields not set in the file keep their built-in defaults.
	if cfg.General.ShadowFile != "/etc/shadow" {
		t.Errorf("ShadowFile = %q, want unmodified default", cfg.General.ShadowFile)
	}
}

func TestLoadMissingConfigFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "does-not-exist.yaml"), nil)
	if err != nil {
		t.Errorf("Load() with a missing config path error = %v, want nil (fall back to defaults)", err)
	}
}

func TestLoadEnvVarOverridesDefault(t *testing.T) {
	t.Setenv("UM_GENERAL_PASSWD_FILE", "/tmp/envpasswd")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.General.PasswdFile != "/tmp/envpasswd" {
		t.Errorf("PasswdFile = %q, want /tmp/envpasswd from env override", cfg.General.PasswdFile)
	}
}

func TestLoadRejectsInvertedUIDRange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gumd.yaml")
	content := "general:\n  uid_min: 9000\n  uid_max: 1000\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(path, nil); err == nil {
		t.Error("Load() with uid_max <= uid_min returned nil error")
	}
}
