// Package vault tracks each character's bank-vault thread: the forum thread
// where the bot posts deposit and withdrawal receipts, plus the flavor vault
// number shown on them.
package vault

import (
	"log/slog"
	"math/rand"
	"strconv"

	"gringotts/internal/kvstore"
)

// Info is one character's vault record.
type Info struct {
	ThreadID    string `json:"thread_id"`
	VaultNumber string `json:"vault_number"`
}

// Registry persists owner id → wallet key → Info.
type Registry struct {
	store *kvstore.Store[map[string]Info]
	log   *slog.Logger
}

func New(path string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{store: kvstore.New[map[string]Info](path, logger), log: logger}
}

func ownerKey(ownerID int64) string { return strconv.FormatInt(ownerID, 10) }

func (r *Registry) Get(ownerID int64, wallet string) (Info, bool) {
	var info Info
	found := false
	r.store.View(func(data map[string]map[string]Info) {
		info, found = data[ownerKey(ownerID)][wallet]
	})
	if found && (info.ThreadID == "" || info.VaultNumber == "") {
		return Info{}, false
	}
	return info, found
}

func (r *Registry) Set(ownerID int64, wallet string, info Info) error {
	err := r.store.Update(func(data map[string]map[string]Info) (bool, error) {
		u, ok := data[ownerKey(ownerID)]
		if !ok {
			u = make(map[string]Info)
			data[ownerKey(ownerID)] = u
		}
		u[wallet] = info
		return true, nil
	})
	if err != nil {
		return err
	}
	r.log.Info("vault linked", "owner", ownerID, "wallet", wallet, "thread", info.ThreadID, "vault", info.VaultNumber)
	return nil
}

// Unlink removes a character's vault record. Reports whether one existed.
func (r *Registry) Unlink(ownerID int64, wallet string) (bool, error) {
	existed := false
	err := r.store.Update(func(data map[string]map[string]Info) (bool, error) {
		u := data[ownerKey(ownerID)]
		if _, ok := u[wallet]; !ok {
			return false, nil
		}
		delete(u, wallet)
		existed = true
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return existed, nil
}

// NewVaultNumber picks a pseudo-random 1–3 digit vault number. Purely flavor;
// collisions between characters are harmless.
func NewVaultNumber() string {
	return strconv.Itoa(rand.Intn(999) + 1)
}
