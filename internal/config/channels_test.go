package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadChannelsConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "channels.yaml")
	content := []byte("channels:\n  instagram:\n    enabled: false\n  gbp:\n    enabled: true\n    default_locale: en\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := LoadChannelsConfig(path)
	if err != nil {
		t.Fatalf("LoadChannelsConfig returned error: %v", err)
	}
	if cfg.Enabled("instagram") {
		t.Fatalf("expected instagram disabled")
	}
	if !cfg.Enabled("gbp") {
		t.Fatalf("expected gbp enabled")
	}
	if !cfg.Enabled("facebook") {
		t.Fatalf("unknown channels should default to enabled")
	}
}

func TestLoadChannelsConfigOrDefault(t *testing.T) {
	cfg := LoadChannelsConfigOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	for _, ch := range []string{"gbp", "instagram", "facebook"} {
		if !cfg.Enabled(ch) {
			t.Fatalf("expected default-enabled channel %s", ch)
		}
	}
}
