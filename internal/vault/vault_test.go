package vault

import (
	"path/filepath"
	"strconv"
	"testing"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "vaults.json"), nil)
}

func TestSetGetUnlink(t *testing.T) {
	r := newTestRegistry(t)

	if _, ok := r.Get(1, "alice"); ok {
		t.Fatalf("empty registry resolved a vault")
	}

	want := Info{ThreadID: "1393690306410450975", VaultNumber: "845"}
	if err := r.Set(1, "alice", want); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok := r.Get(1, "alice")
	if !ok || got != want {
		t.Fatalf("get = %+v, %v; want %+v", got, ok, want)
	}

	// Same owner, other wallet is independent.
	if _, ok := r.Get(1, "beatrice"); ok {
		t.Fatalf("unrelated wallet resolved")
	}

	existed, err := r.Unlink(1, "alice")
	if err != nil || !existed {
		t.Fatalf("unlink: existed=%v err=%v", existed, err)
	}
	if _, ok := r.Get(1, "alice"); ok {
		t.Fatalf("vault still resolves after unlink")
	}
	existed, err = r.Unlink(1, "alice")
	if err != nil || existed {
		t.Fatalf("second unlink: existed=%v err=%v", existed, err)
	}
}

func TestIncompleteRecordIgnored(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.Set(2, "carol", Info{ThreadID: "123"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := r.Get(2, "carol"); ok {
		t.Fatalf("record without a vault number should not resolve")
	}
}

func TestNewVaultNumber(t *testing.T) {
	for i := 0; i < 100; i++ {
		n, err := strconv.Atoi(NewVaultNumber())
		if err != nil {
			t.Fatalf("non-numeric vault number: %v", err)
		}
		if n < 1 || n > 999 {
			t.Fatalf("vault number %d out of range", n)
		}
	}
}
