package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "livesync.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func resetGlobal(t *testing.T) {
	t.Helper()
	reset := func() { global = &holder{} }
	reset()
	t.Cleanup(reset)
}
