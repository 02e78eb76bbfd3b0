package util

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizePatternPath(t *testing.T) {
	cases := []struct{ in, want string }{
		{"./src/protocols", "src/protocols"},
		{"src\\protocols", "src/protocols"},
		{"  src/a/../b  ", "src/b"},
		{".", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizePatternPath(tc.in); got != tc.want {
			t.Errorf("NormalizePatternPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRescanLimiter(t *testing.T) {
	t.Run("first rescan is immediate", func(t *testing.T) {
		l := NewRescanLimiter(0.001)
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("burst token should admit the first rescan: %v", err)
		}
	})

	t.Run("cancelled wait fails once the burst is spent", func(t *testing.T) {
		l := NewRescanLimiter(0.001)
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("burst token: %v", err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := l.Wait(ctx); err == nil {
			t.Error("expected error waiting on a cancelled context")
		}
	})
}

func TestSortedStringKeys(t *testing.T) {
	keys := SortedStringKeys(map[string]int{"b": 1, "a": 2, "c": 3})
	if len(keys) != 3 || keys[0] != "a" || keys[2] != "c" {
		t.Errorf("unexpected order: %v", keys)
	}
}

func TestWriteFileWithDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "out.json")
	if err := WriteFileWithDirs(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("content = %q", data)
	}
}
