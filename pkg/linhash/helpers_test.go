package linhash_test

import (
	"os"
	"path/filepath"
	"testing"
)

// tempRelationName returns a relation name (base path, no extension) inside
// a fresh per-test directory, with .info/.data/.ovflow cleanup automatic via
// t.TempDir().
func tempRelationName(t *testing.T, name string) string {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, name)
}

func mustRemove(t *testing.T, name string) {
	t.Helper()
	for _, ext := range []string{".info", ".data", ".ovflow"} {
		_ = os.Remove(name + ext)
	}
}
