package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// unsetEnv clears keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, "DEV_MODE", "DEFAULT_LEVELS", "REMOTE_CACHE_TTL", "DRIVE_API_KEY_PARAM")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DevMode {
		t.Error("DevMode should default to false")
	}
	if cfg.RemoteCacheTTL != 10*time.Minute {
		t.Errorf("RemoteCacheTTL = %v, want 10m", cfg.RemoteCacheTTL)
	}
	if !reflect.DeepEqual(cfg.DefaultLevels, []int{100, 200, 300, 400, 500}) {
		t.Errorf("DefaultLevels = %v", cfg.DefaultLevels)
	}
	if cfg.DriveAPIKeyParam != "/pastq/drive-api-key" {
		t.Errorf("DriveAPIKeyParam = %q", cfg.DriveAPIKeyParam)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DEV_MODE", "true")
	t.Setenv("DRIVE_ROOT_FOLDER_ID", "root-123")
	t.Setenv("DEFAULT_LEVELS", "100,200")
	t.Setenv("REMOTE_CACHE_TTL", "90s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.DevMode || cfg.RootFolderID != "root-123" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.DefaultLevels, []int{100, 200}) {
		t.Errorf("DefaultLevels = %v", cfg.DefaultLevels)
	}
	if cfg.RemoteCacheTTL != 90*time.Second {
		t.Errorf("RemoteCacheTTL = %v", cfg.RemoteCacheTTL)
	}
}

func TestPolicy_InlineWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "policy.json")
	if err := os.WriteFile(file, []byte(`{"departments":{"Law":{"levels":[100]}}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{
		PolicyFile:    file,
		PolicyJSON:    `{"departments":{"Law":{"levels":[200]}}}`,
		DefaultLevels: []int{100, 200, 300},
	}
	p, err := cfg.Policy()
	if err != nil {
		t.Fatalf("Policy failed: %v", err)
	}
	if !p.Allows("Law", "200 Level") || p.Allows("Law", "100 Level") {
		t.Error("inline policy should take precedence over the file")
	}
	if p.Allows("Medicine", "400 Level") {
		t.Error("default levels should come from config")
	}
}

func TestPolicy_File(t *testing.T) {
	file := filepath.Join(t.TempDir(), "policy.json")
	if err := os.WriteFile(file, []byte(`{"departments":{"Law":{"levels":[100]}}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	p, err := (&Config{PolicyFile: file}).Policy()
	if err != nil {
		t.Fatalf("Policy failed: %v", err)
	}
	if p.Allows("Law", "200 Level") {
		t.Error("file policy not applied")
	}
}
