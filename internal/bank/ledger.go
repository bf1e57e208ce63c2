// Package bank holds the balance ledger: one integer knut balance per
// (owner, optional wallet key) pair, persisted as a flat JSON object keyed
// "<owner_id>" or "<owner_id>:<wallet>". Absent pairs read as zero.
package bank

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"gringotts/internal/currency"
	"gringotts/internal/kvstore"
)

type Ledger struct {
	store *kvstore.Store[int64]
	log   *slog.Logger
}

func New(path string, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		store: kvstore.New[int64](path, logger),
		log:   logger,
	}
}

// walletKey builds the storage key. An empty wallet means the owner-level
// wallet; wallet keys are trimmed and lowercased.
func walletKey(ownerID int64, wallet string) string {
	wallet = strings.ToLower(strings.TrimSpace(wallet))
	if wallet == "" {
		return strconv.FormatInt(ownerID, 10)
	}
	return fmt.Sprintf("%d:%s", ownerID, wallet)
}

// splitKey is the inverse of walletKey. ok is false for keys whose owner
// prefix is not numeric.
func splitKey(key string) (ownerID int64, wallet string, ok bool) {
	owner := key
	if i := strings.IndexByte(key, ':'); i >= 0 {
		owner, wallet = key[:i], key[i+1:]
	}
	ownerID, err := strconv.ParseInt(owner, 10, 64)
	return ownerID, wallet, err == nil
}

// Balance returns the stored balance, or zero when no entry exists.
func (l *Ledger) Balance(ownerID int64, wallet string) currency.Money {
	key := walletKey(ownerID, wallet)
	var knuts int64
	l.store.View(func(data map[string]int64) {
		knuts = data[key]
	})
	return currency.FromKnuts(knuts)
}

// SetBalance overwrites the balance unconditionally.
func (l *Ledger) SetBalance(ownerID int64, amount currency.Money, wallet string) error {
	key := walletKey(ownerID, wallet)
	err := l.store.Update(func(data map[string]int64) (bool, error) {
		data[key] = amount.Knuts
		return true, nil
	})
	if err != nil {
		return err
	}
	l.log.Info("balance set", "key", key, "knuts", amount.Knuts)
	return nil
}

// Add credits (or debits, when negative) the wallet. A zero delta is a no-op
// and never touches the disk.
func (l *Ledger) Add(ownerID int64, delta currency.Money, wallet string) error {
	if delta.IsZero() {
		return nil
	}
	key := walletKey(ownerID, wallet)
	var newKnuts int64
	err := l.store.Update(func(data map[string]int64) (bool, error) {
		newKnuts = data[key] + delta.Knuts
		data[key] = newKnuts
		return true, nil
	})
	if err != nil {
		return err
	}
	l.log.Info("balance add", "key", key, "delta", delta.Knuts, "new", newKnuts)
	return nil
}

// SubtractIfEnough debits price iff the wallet holds at least that much.
// Non-positive prices trivially succeed without mutation. The check and the
// debit happen under the store lock, so a balance can never go negative here.
func (l *Ledger) SubtractIfEnough(ownerID int64, price currency.Money, wallet string) (bool, error) {
	if price.Knuts <= 0 {
		return true, nil
	}
	key := walletKey(ownerID, wallet)
	ok := false
	err := l.store.Update(func(data map[string]int64) (bool, error) {
		cur := data[key]
		if cur < price.Knuts {
			return false, nil
		}
		data[key] = cur - price.Knuts
		ok = true
		return true, nil
	})
	if err != nil {
		return false, err
	}
	if !ok {
		l.log.Info("subtract refused, insufficient funds", "key", key, "need", price.Knuts)
	}
	return ok, nil
}

// Transfer moves amount between two wallets under a single lock acquisition:
// both sides change together or not at all (one save call). It refuses
// non-positive amounts and transfers onto the same wallet.
func (l *Ledger) Transfer(senderID, receiverID int64, amount currency.Money, fromWallet, toWallet string) (bool, error) {
	sKey := walletKey(senderID, fromWallet)
	rKey := walletKey(receiverID, toWallet)
	if amount.Knuts <= 0 || sKey == rKey {
		return false, nil
	}
	ok := false
	err := l.store.Update(func(data map[string]int64) (bool, error) {
		have := data[sKey]
		if have < amount.Knuts {
			return false, nil
		}
		data[sKey] = have - amount.Knuts
		data[rKey] += amount.Knuts
		ok = true
		return true, nil
	})
	if err != nil {
		return false, err
	}
	if ok {
		l.log.Info("transfer ok", "from", sKey, "to", rKey, "knuts", amount.Knuts)
	} else {
		l.log.Info("transfer refused, insufficient funds", "from", sKey, "need", amount.Knuts)
	}
	return ok, nil
}

// RenameWallet moves a balance under a new wallet key. It fails when the old
// key is absent or the new key already exists.
func (l *Ledger) RenameWallet(ownerID int64, oldWallet, newWallet string) (bool, error) {
	oldKey := walletKey(ownerID, oldWallet)
	newKey := walletKey(ownerID, newWallet)
	ok := false
	err := l.store.Update(func(data map[string]int64) (bool, error) {
		old, exists := data[oldKey]
		if !exists {
			return false, nil
		}
		if _, taken := data[newKey]; taken {
			return false, nil
		}
		delete(data, oldKey)
		data[newKey] = old
		ok = true
		return true, nil
	})
	if err != nil {
		return false, err
	}
	if ok {
		l.log.Info("wallet renamed", "old", oldKey, "new", newKey)
	}
	return ok, nil
}

// OwnerTotal sums an owner's balances across the owner-level wallet and every
// character wallet.
func (l *Ledger) OwnerTotal(ownerID int64) currency.Money {
	prefix := strconv.FormatInt(ownerID, 10)
	var total int64
	l.store.View(func(data map[string]int64) {
		for key, knuts := range data {
			if key == prefix || strings.HasPrefix(key, prefix+":") {
				total += knuts
			}
		}
	})
	return currency.FromKnuts(total)
}

// Wallets lists an owner's character wallets (the owner-level wallet with no
// key is excluded).
func (l *Ledger) Wallets(ownerID int64) map[string]currency.Money {
	prefix := strconv.FormatInt(ownerID, 10) + ":"
	out := make(map[string]currency.Money)
	l.store.View(func(data map[string]int64) {
		for key, knuts := range data {
			if strings.HasPrefix(key, prefix) {
				out[key[len(prefix):]] = currency.FromKnuts(knuts)
			}
		}
	})
	return out
}

type OwnerRank struct {
	OwnerID int64
	Total   currency.Money
}

type WalletRank struct {
	OwnerID int64
	Wallet  string
	Balance currency.Money
}

// TopOwners ranks owners by total balance across all their wallets,
// descending; ties break by ascending owner id so the order is deterministic.
func (l *Ledger) TopOwners(n int) []OwnerRank {
	totals := make(map[int64]int64)
	l.store.View(func(data map[string]int64) {
		for key, knuts := range data {
			ownerID, _, ok := splitKey(key)
			if !ok {
				continue
			}
			totals[ownerID] += knuts
		}
	})
	ranked := make([]OwnerRank, 0, len(totals))
	for ownerID, knuts := range totals {
		ranked = append(ranked, OwnerRank{OwnerID: ownerID, Total: currency.FromKnuts(knuts)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Total.Knuts != ranked[j].Total.Knuts {
			return ranked[i].Total.Knuts > ranked[j].Total.Knuts
		}
		return ranked[i].OwnerID < ranked[j].OwnerID
	})
	return clip(ranked, n)
}

// TopWallets ranks individual character wallets by balance, descending.
// Owner-level wallets with no key are excluded.
func (l *Ledger) TopWallets(n int) []WalletRank {
	var ranked []WalletRank
	l.store.View(func(data map[string]int64) {
		for key, knuts := range data {
			ownerID, wallet, ok := splitKey(key)
			if !ok || wallet == "" {
				continue
			}
			ranked = append(ranked, WalletRank{
				OwnerID: ownerID,
				Wallet:  wallet,
				Balance: currency.FromKnuts(knuts),
			})
		}
	})
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Balance.Knuts != ranked[j].Balance.Knuts {
			return ranked[i].Balance.Knuts > ranked[j].Balance.Knuts
		}
		if ranked[i].OwnerID != ranked[j].OwnerID {
			return ranked[i].OwnerID < ranked[j].OwnerID
		}
		return ranked[i].Wallet < ranked[j].Wallet
	})
	return clip(ranked, n)
}

func clip[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}
