package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"kmzgen/internal/fileutil"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.kmz")
	dst := filepath.Join(dir, "dst.kmz")
	writeFile(t, src, "kmz payload")

	if err := fileutil.CopyFileVerified(src, dst); err != nil {
		t.Fatalf("CopyFileVerified: %v", err)
	}
	if got := readFile(t, dst); got != "kmz payload" {
		t.Fatalf("unexpected copy content %q", got)
	}
}

func TestCopyFileVerifiedMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := fileutil.CopyFileVerified(filepath.Join(dir, "absent"), filepath.Join(dir, "out"))
	if err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestCopyTreeOverwritesAndExcludes(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	writeFile(t, filepath.Join(src, "D01_Interstates.kmz"), "new interstates")
	writeFile(t, filepath.Join(src, "D02_Parkways.kmz"), "new parkways")
	writeFile(t, filepath.Join(src, "logs", "run.log"), "chatter")
	writeFile(t, filepath.Join(src, "scratch.tmp"), "scratch")
	writeFile(t, filepath.Join(dst, "D01_Interstates.kmz"), "stale interstates")

	if err := fileutil.CopyTree(src, dst, []string{"logs", "*.tmp"}); err != nil {
		t.Fatalf("CopyTree: %v", err)
	}

	if got := readFile(t, filepath.Join(dst, "D01_Interstates.kmz")); got != "new interstates" {
		t.Fatalf("expected overwrite, got %q", got)
	}
	if got := readFile(t, filepath.Join(dst, "D02_Parkways.kmz")); got != "new parkways" {
		t.Fatalf("unexpected content %q", got)
	}
	if _, err := os.Stat(filepath.Join(dst, "logs")); !os.IsNotExist(err) {
		t.Fatal("excluded directory was copied")
	}
	if _, err := os.Stat(filepath.Join(dst, "scratch.tmp")); !os.IsNotExist(err) {
		t.Fatal("excluded file was copied")
	}
}

func TestCopyTreeSourceMissing(t *testing.T) {
	if err := fileutil.CopyTree(filepath.Join(t.TempDir(), "absent"), t.TempDir(), nil); err == nil {
		t.Fatal("expected error for missing source tree")
	}
}

func TestClearDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "old.kmz"), "old")
	writeFile(t, filepath.Join(dir, "2026-08-21", "nested.kmz"), "old run")

	if err := fileutil.ClearDir(dir); err != nil {
		t.Fatalf("ClearDir: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty dir, found %d entries", len(entries))
	}
}

func TestClearDirCreatesMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fresh")
	if err := fileutil.ClearDir(dir); err != nil {
		t.Fatalf("ClearDir: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("expected dir created: %v", err)
	}
}
