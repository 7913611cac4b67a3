package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"telecine/internal/config"
)

// ConfigFileName is the file SaveConfig writes under the config's base dir.
const ConfigFileName = "telecine.toml"

// SaveConfig writes cfg to a TOML file beside its temp directories and
// returns the path, for tests that go through config.Load.
func SaveConfig(t testing.TB, cfg *config.Config) string {
	t.Helper()
	path := filepath.Join(BaseDir(cfg), ConfigFileName)
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save config %s: %v", path, err)
	}
	return path
}

// Touch creates a small regular file at path, making parents as needed.
func Touch(t testing.TB, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte{0x42}, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
