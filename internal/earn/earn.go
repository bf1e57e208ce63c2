// Package earn handles role-play earnings: the per-wallet cooldown that rate
// limits message payouts, and the pending queue that batches a day's earnings
// into one summary receipt per character.
package earn

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gringotts/internal/kvstore"
)

// Record accumulates one wallet's earnings for one UTC day.
type Record struct {
	Knuts int64 `json:"knuts"`
	Count int64 `json:"count"`
}

// guildBucket maps guild id → "<owner_id>:<wallet>" → Record.
type guildBucket map[string]map[string]Record

// Queue is the persistent pending-earnings store, keyed by UTC date
// ("YYYY-MM-DD"). Balances are credited immediately on earn; the queue only
// drives the daily summary receipts, and each day bucket is removed once
// flushed.
type Queue struct {
	store *kvstore.Store[guildBucket]
	log   *slog.Logger
}

func NewQueue(path string, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{store: kvstore.New[guildBucket](path, logger), log: logger}
}

// DateString formats a moment as the UTC day key.
func DateString(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Add accumulates an earning into today's bucket for (guild, owner, wallet).
func (q *Queue) Add(guildID string, ownerID int64, wallet string, knuts int64, now time.Time) error {
	day := DateString(now)
	walletKey := fmt.Sprintf("%d:%s", ownerID, wallet)
	return q.store.Update(func(data map[string]guildBucket) (bool, error) {
		bucket, ok := data[day]
		if !ok {
			bucket = make(guildBucket)
			data[day] = bucket
		}
		wallets, ok := bucket[guildID]
		if !ok {
			wallets = make(map[string]Record)
			bucket[guildID] = wallets
		}
		rec := wallets[walletKey]
		rec.Knuts += knuts
		rec.Count++
		wallets[walletKey] = rec
		return true, nil
	})
}

// TakeDay removes and returns one day's bucket. A nil result means nothing
// was queued for that day.
func (q *Queue) TakeDay(day string) (map[string]map[string]Record, error) {
	var taken map[string]map[string]Record
	err := q.store.Update(func(data map[string]guildBucket) (bool, error) {
		bucket, ok := data[day]
		if !ok {
			return false, nil
		}
		taken = bucket
		delete(data, day)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if taken != nil {
		q.log.Info("pending earnings flushed", "day", day, "guilds", len(taken))
	}
	return taken, nil
}

// Cooldown rate limits earnings per (owner, wallet). It lives in memory
// only: a restart resets it, which at a 15 second window is harmless. It is
// constructed by the process and injected into the message path so tests can
// run isolated instances with their own clock.
type Cooldown struct {
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

func NewCooldown(interval time.Duration) *Cooldown {
	return &Cooldown{
		interval: interval,
		now:      time.Now,
		last:     make(map[string]time.Time),
	}
}

// Allow reports whether the wallet may earn again, and on success records the
// grant time.
func (c *Cooldown) Allow(ownerID int64, wallet string) bool {
	key := fmt.Sprintf("%d:%s", ownerID, wallet)
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if last, ok := c.last[key]; ok && now.Sub(last) < c.interval {
		return false
	}
	c.last[key] = now
	return true
}
