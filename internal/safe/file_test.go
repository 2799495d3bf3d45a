package safe

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenFile(t *testing.T) {
	t.Run("opens regular file", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "doc.txt")
		content := []byte("test content")

		if err := os.WriteFile(path, content, 0o644); err != nil {
			t.Fatal(err)
		}

		f, err := OpenFile(path, nil)
		if err != nil {
			t.Fatalf("OpenFile failed: %v", err)
		}
		defer f.Close()

		got, err := io.ReadAll(f)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != string(content) {
			t.Errorf("got %q, want %q", got, content)
		}
	})

	t.Run("rejects symlink by default", func(t *testing.T) {
		tmpDir := t.TempDir()
		src := filepath.Join(tmpDir, "doc.txt")
		link := filepath.Join(tmpDir, "link.txt")

		if err := os.WriteFile(src, []byte("test"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Symlink(src, link); err != nil {
			t.Fatal(err)
		}

		if _, err := OpenFile(link, nil); err == nil {
			t.Fatal("expected error for symlink, got nil")
		}
	})

	t.Run("allows symlink when enabled", func(t *testing.T) {
		tmpDir := t.TempDir()
		src := filepath.Join(tmpDir, "doc.txt")
		link := filepath.Join(tmpDir, "link.txt")

		if err := os.WriteFile(src, []byte("test"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Symlink(src, link); err != nil {
			t.Fatal(err)
		}

		f, err := OpenFile(link, &FileOptions{AllowSymlinks: true})
		if err != nil {
			t.Fatalf("OpenFile failed: %v", err)
		}
		_ = f.Close()
	})

	t.Run("rejects file exceeding max size", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "large.pdf")

		if err := os.WriteFile(path, make([]byte, 100), 0o644); err != nil {
			t.Fatal(err)
		}

		if _, err := OpenFile(path, &FileOptions{MaxSize: 50}); err == nil {
			t.Fatal("expected error for oversized file, got nil")
		}
	})

	t.Run("rejects directory", func(t *testing.T) {
		if _, err := OpenFile(t.TempDir(), nil); err == nil {
			t.Fatal("expected error for directory, got nil")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := OpenFile(filepath.Join(t.TempDir(), "missing.txt"), nil)
		if !os.IsNotExist(err) {
			t.Fatalf("expected not-exist error, got %v", err)
		}
	})
}

func TestReadFile(t *testing.T) {
	t.Run("reads regular file", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "config.yaml")
		content := []byte("service:\n  url: http://127.0.0.1:8000\n")

		if err := os.WriteFile(path, content, 0o644); err != nil {
			t.Fatal(err)
		}

		got, err := ReadFile(path, nil)
		if err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
		if string(got) != string(content) {
			t.Errorf("got %q, want %q", got, content)
		}
	})

	t.Run("rejects file exceeding max size", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "large.yaml")

		if err := os.WriteFile(path, make([]byte, 100), 0o644); err != nil {
			t.Fatal(err)
		}

		if _, err := ReadFile(path, &FileOptions{MaxSize: 50}); err == nil {
			t.Fatal("expected error for oversized file, got nil")
		}
	})
}
