package bank

import (
	"path/filepath"
	"sync"
	"testing"

	"gringotts/internal/currency"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "balances.json"), nil)
}

func TestSetThenGet(t *testing.T) {
	l := newTestLedger(t)
	if err := l.SetBalance(1, currency.FromKnuts(1234), "dominic sullivan"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := l.Balance(1, "dominic sullivan").Knuts; got != 1234 {
		t.Fatalf("balance = %d, want 1234", got)
	}
	// Wallet keys are case-folded and trimmed.
	if got := l.Balance(1, "  Dominic Sullivan ").Knuts; got != 1234 {
		t.Fatalf("normalized key lookup = %d, want 1234", got)
	}
	if got := l.Balance(1, "").Knuts; got != 0 {
		t.Fatalf("owner-level wallet should be empty, got %d", got)
	}
}

func TestAddZeroIsNoop(t *testing.T) {
	l := newTestLedger(t)
	if err := l.Add(7, currency.Zero(), ""); err != nil {
		t.Fatalf("add zero: %v", err)
	}
	// No write should have happened: the backing file must not exist.
	l.store.View(func(data map[string]int64) {
		if len(data) != 0 {
			t.Fatalf("zero add created entries: %v", data)
		}
	})
}

func TestAddNegativeDelta(t *testing.T) {
	l := newTestLedger(t)
	if err := l.Add(7, currency.FromKnuts(100), "cat"); err != nil {
		t.Fatal(err)
	}
	if err := l.Add(7, currency.FromKnuts(-30), "cat"); err != nil {
		t.Fatal(err)
	}
	if got := l.Balance(7, "cat").Knuts; got != 70 {
		t.Fatalf("balance = %d, want 70", got)
	}
}

func TestSubtractIfEnough(t *testing.T) {
	l := newTestLedger(t)
	if err := l.Add(1, currency.FromKnuts(7000), ""); err != nil {
		t.Fatal(err)
	}

	ok, err := l.SubtractIfEnough(1, currency.FromKnuts(8000), "")
	if err != nil || ok {
		t.Fatalf("overdraw: ok=%v err=%v, want refused", ok, err)
	}
	if got := l.Balance(1, "").Knuts; got != 7000 {
		t.Fatalf("refused subtract changed balance to %d", got)
	}

	ok, err = l.SubtractIfEnough(1, currency.FromKnuts(7000), "")
	if err != nil || !ok {
		t.Fatalf("exact subtract: ok=%v err=%v", ok, err)
	}
	if got := l.Balance(1, "").Knuts; got != 0 {
		t.Fatalf("balance = %d, want 0", got)
	}

	// Non-positive prices trivially succeed without mutation.
	ok, err = l.SubtractIfEnough(1, currency.FromKnuts(-5), "")
	if err != nil || !ok {
		t.Fatalf("negative price: ok=%v err=%v", ok, err)
	}
	if got := l.Balance(1, "").Knuts; got != 0 {
		t.Fatalf("negative price mutated balance to %d", got)
	}
}

func TestTransfer(t *testing.T) {
	l := newTestLedger(t)
	if err := l.SetBalance(1, currency.FromKnuts(500), "alice"); err != nil {
		t.Fatal(err)
	}

	ok, err := l.Transfer(1, 2, currency.FromKnuts(200), "alice", "bob")
	if err != nil || !ok {
		t.Fatalf("transfer: ok=%v err=%v", ok, err)
	}
	if got := l.Balance(1, "alice").Knuts; got != 300 {
		t.Fatalf("sender = %d, want 300", got)
	}
	if got := l.Balance(2, "bob").Knuts; got != 200 {
		t.Fatalf("receiver = %d, want 200", got)
	}

	// Insufficient funds.
	ok, err = l.Transfer(1, 2, currency.FromKnuts(9999), "alice", "bob")
	if err != nil || ok {
		t.Fatalf("overdraw transfer: ok=%v err=%v", ok, err)
	}

	// Non-positive amount.
	ok, err = l.Transfer(1, 2, currency.Zero(), "alice", "bob")
	if err != nil || ok {
		t.Fatalf("zero transfer: ok=%v err=%v", ok, err)
	}
}

func TestTransferSameWalletRefused(t *testing.T) {
	l := newTestLedger(t)
	if err := l.SetBalance(1, currency.FromKnuts(500), "alice"); err != nil {
		t.Fatal(err)
	}
	ok, err := l.Transfer(1, 1, currency.FromKnuts(10), "alice", "Alice ")
	if err != nil || ok {
		t.Fatalf("same-wallet transfer: ok=%v err=%v, want refused", ok, err)
	}
	if got := l.Balance(1, "alice").Knuts; got != 500 {
		t.Fatalf("balance changed to %d", got)
	}
	// Same owner, different wallets is fine.
	ok, err = l.Transfer(1, 1, currency.FromKnuts(10), "alice", "beatrice")
	if err != nil || !ok {
		t.Fatalf("cross-wallet transfer: ok=%v err=%v", ok, err)
	}
}

func TestTransferAtomicUnderConcurrentReads(t *testing.T) {
	l := newTestLedger(t)
	const total = 1000
	if err := l.SetBalance(1, currency.FromKnuts(total), "a"); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			// The two sides must always sum to the starting total: no
			// observable state where only one side has moved.
			sum := l.Balance(1, "a").Knuts + l.Balance(1, "b").Knuts
			if sum != total {
				t.Errorf("observed partial transfer: sum=%d want %d", sum, total)
				return
			}
		}
	}()

	for i := 0; i < 50; i++ {
		if _, err := l.Transfer(1, 1, currency.FromKnuts(10), "a", "b"); err != nil {
			t.Fatalf("transfer %d: %v", i, err)
		}
	}
	close(done)
	wg.Wait()

	if got := l.Balance(1, "b").Knuts; got != 500 {
		t.Fatalf("receiver = %d, want 500", got)
	}
}

func TestRenameWallet(t *testing.T) {
	l := newTestLedger(t)
	if err := l.SetBalance(1, currency.FromKnuts(90), "old name"); err != nil {
		t.Fatal(err)
	}
	if err := l.SetBalance(1, currency.FromKnuts(10), "taken"); err != nil {
		t.Fatal(err)
	}

	if ok, err := l.RenameWallet(1, "missing", "new"); err != nil || ok {
		t.Fatalf("rename of absent key: ok=%v err=%v", ok, err)
	}
	if ok, err := l.RenameWallet(1, "old name", "taken"); err != nil || ok {
		t.Fatalf("rename onto existing key: ok=%v err=%v", ok, err)
	}
	if ok, err := l.RenameWallet(1, "old name", "new name"); err != nil || !ok {
		t.Fatalf("rename: ok=%v err=%v", ok, err)
	}
	if got := l.Balance(1, "new name").Knuts; got != 90 {
		t.Fatalf("moved balance = %d, want 90", got)
	}
	if got := l.Balance(1, "old name").Knuts; got != 0 {
		t.Fatalf("old key still holds %d", got)
	}
}

func TestOwnerTotalAndTops(t *testing.T) {
	l := newTestLedger(t)
	if err := l.SetBalance(5, currency.FromKnuts(100), ""); err != nil {
		t.Fatal(err)
	}
	if err := l.SetBalance(5, currency.FromKnuts(50), "cat"); err != nil {
		t.Fatal(err)
	}
	if err := l.SetBalance(6, currency.FromKnuts(10), ""); err != nil {
		t.Fatal(err)
	}

	if got := l.OwnerTotal(5).Knuts; got != 150 {
		t.Fatalf("owner 5 total = %d, want 150", got)
	}
	if got := l.OwnerTotal(6).Knuts; got != 10 {
		t.Fatalf("owner 6 total = %d, want 10", got)
	}

	top := l.TopOwners(10)
	if len(top) != 2 {
		t.Fatalf("top owners = %d entries, want 2", len(top))
	}
	if top[0].OwnerID != 5 || top[0].Total.Knuts != 150 {
		t.Fatalf("rank 1 = %+v, want owner 5 with 150", top[0])
	}
	if top[1].OwnerID != 6 || top[1].Total.Knuts != 10 {
		t.Fatalf("rank 2 = %+v, want owner 6 with 10", top[1])
	}

	wallets := l.TopWallets(10)
	if len(wallets) != 1 {
		t.Fatalf("top wallets = %d entries, want 1 (owner-level excluded)", len(wallets))
	}
	if wallets[0].OwnerID != 5 || wallets[0].Wallet != "cat" || wallets[0].Balance.Knuts != 50 {
		t.Fatalf("wallet rank = %+v", wallets[0])
	}
}

func TestTopOwnersTieBreak(t *testing.T) {
	l := newTestLedger(t)
	for _, id := range []int64{9, 3, 6} {
		if err := l.SetBalance(id, currency.FromKnuts(100), ""); err != nil {
			t.Fatal(err)
		}
	}
	top := l.TopOwners(0)
	want := []int64{3, 6, 9}
	for i, r := range top {
		if r.OwnerID != want[i] {
			t.Fatalf("tie order = %v, want ascending owner ids %v", top, want)
		}
	}
}

func TestEndToEndScenario(t *testing.T) {
	l := newTestLedger(t)
	if got := l.Balance(1, "").Knuts; got != 0 {
		t.Fatalf("fresh balance = %d", got)
	}
	if err := l.Add(1, currency.FromGSK(0, 0, 7000), ""); err != nil {
		t.Fatal(err)
	}
	if got := l.Balance(1, "").Knuts; got != 7000 {
		t.Fatalf("balance = %d, want 7000", got)
	}
	if ok, _ := l.SubtractIfEnough(1, currency.FromGSK(0, 0, 8000), ""); ok {
		t.Fatalf("overdraw succeeded")
	}
	if got := l.Balance(1, "").Knuts; got != 7000 {
		t.Fatalf("balance after refused subtract = %d, want 7000", got)
	}
	if ok, _ := l.SubtractIfEnough(1, currency.FromGSK(0, 0, 7000), ""); !ok {
		t.Fatalf("exact subtract refused")
	}
	if got := l.Balance(1, "").Knuts; got != 0 {
		t.Fatalf("final balance = %d, want 0", got)
	}
}
