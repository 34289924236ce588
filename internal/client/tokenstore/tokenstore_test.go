package tokenstore

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	f := NewFile(path)

	tok, err := f.Load()
	if err != nil || tok != "" {
		t.Fatalf("absent file should load as empty token, got %q err=%v", tok, err)
	}

	if err := f.Save("abc.def.ghi"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	tok, err = f.Load()
	if err != nil || tok != "abc.def.ghi" {
		t.Fatalf("expected saved token, got %q err=%v", tok, err)
	}

	if err := f.Save("second"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if tok, _ := f.Load(); tok != "second" {
		t.Fatalf("expected overwritten token, got %q", tok)
	}

	if err := f.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if tok, _ := f.Load(); tok != "" {
		t.Fatalf("expected empty after clear, got %q", tok)
	}
	if err := f.Clear(); err != nil {
		t.Fatalf("clearing twice should be fine: %v", err)
	}
}

func TestFile_PermissionsAndNoLeftovers(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	dir := t.TempDir()
	f := NewFile(filepath.Join(dir, "token"))

	if err := f.Save("secret"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(f.Path())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600, got %o", perm)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestFile_SaveEmptyClears(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "token"))
	_ = f.Save("x")

	if err := f.Save(""); err != nil {
		t.Fatalf("Save empty: %v", err)
	}
	if _, err := os.Stat(f.Path()); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, stat err=%v", err)
	}
}

func TestFile_TrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("tok\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if tok, _ := NewFile(path).Load(); tok != "tok" {
		t.Fatalf("expected trimmed token, got %q", tok)
	}
}

func TestMemory(t *testing.T) {
	var s Store = NewMemory("")
	if tok, _ := s.Load(); tok != "" {
		t.Fatalf("expected empty")
	}
	_ = s.Save("t1")
	if tok, _ := s.Load(); tok != "t1" {
		t.Fatalf("expected t1, got %q", tok)
	}
	_ = s.Clear()
	if tok, _ := s.Load(); tok != "" {
		t.Fatalf("expected empty after clear, got %q", tok)
	}
}
