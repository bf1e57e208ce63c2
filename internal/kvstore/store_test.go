package kvstore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMissingFileIsEmpty(t *testing.T) {
	s := New[int64](filepath.Join(t.TempDir(), "balances.json"), nil)
	s.View(func(data map[string]int64) {
		if len(data) != 0 {
			t.Fatalf("expected empty store, got %d entries", len(data))
		}
	})
}

func TestUpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balances.json")
	s := New[int64](path, nil)

	err := s.Update(func(data map[string]int64) (bool, error) {
		data["42"] = 700
		return true, nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	// A fresh store over the same file sees the write.
	s2 := New[int64](path, nil)
	s2.View(func(data map[string]int64) {
		if data["42"] != 700 {
			t.Fatalf("got %d, want 700", data["42"])
		}
	})

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(raw), "\"42\": 700") {
		t.Fatalf("expected indented JSON, got %s", raw)
	}
}

func TestCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balances.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := New[int64](path, nil)
	s.View(func(data map[string]int64) {
		if len(data) != 0 {
			t.Fatalf("corrupt file should read as empty, got %d entries", len(data))
		}
	})
}

func TestUpdateAbortsOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balances.json")
	s := New[int64](path, nil)
	if err := s.Update(func(data map[string]int64) (bool, error) {
		data["1"] = 1
		return true, nil
	}); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := s.Update(func(data map[string]int64) (bool, error) {
		data["1"] = 999
		return true, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error back, got %v", err)
	}

	s.View(func(data map[string]int64) {
		if data["1"] != 1 {
			t.Fatalf("aborted update must not persist, got %d", data["1"])
		}
	})
}

func TestUpdateSkipsSaveWhenUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balances.json")
	s := New[int64](path, nil)
	if err := s.Update(func(data map[string]int64) (bool, error) {
		return false, nil
	}); err != nil {
		t.Fatalf("read-only update: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("no-op update should not create the file")
	}
}

func TestNoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	s := New[map[string]int64](filepath.Join(dir, "shops.json"), nil)
	if err := s.Update(func(data map[string]map[string]int64) (bool, error) {
		data["hogsmeade"] = map[string]int64{"honeydukes": 1}
		return true, nil
	}); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp_") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}
