package earn

import (
	"path/filepath"
	"testing"
	"time"
)

func TestQueueAccumulates(t *testing.T) {
	q := NewQueue(filepath.Join(t.TempDir(), "pending_receipts.json"), nil)
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if err := q.Add("guild1", 42, "alice", 7, now); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	if err := q.Add("guild1", 42, "bob", 7, now); err != nil {
		t.Fatal(err)
	}
	if err := q.Add("guild2", 42, "alice", 7, now); err != nil {
		t.Fatal(err)
	}

	day, err := q.TakeDay("2025-03-14")
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if len(day) != 2 {
		t.Fatalf("guilds = %d, want 2", len(day))
	}
	rec := day["guild1"]["42:alice"]
	if rec.Knuts != 21 || rec.Count != 3 {
		t.Fatalf("alice record = %+v, want 21 knuts over 3 messages", rec)
	}
	rec = day["guild1"]["42:bob"]
	if rec.Knuts != 7 || rec.Count != 1 {
		t.Fatalf("bob record = %+v", rec)
	}

	// Taking a day removes it.
	day, err = q.TakeDay("2025-03-14")
	if err != nil {
		t.Fatal(err)
	}
	if day != nil {
		t.Fatalf("second take returned %v, want nil", day)
	}
}

func TestQueueSplitsByUTCDate(t *testing.T) {
	q := NewQueue(filepath.Join(t.TempDir(), "pending_receipts.json"), nil)
	// 23:30 UTC and 00:30 UTC the next day land in different buckets.
	d1 := time.Date(2025, 3, 14, 23, 30, 0, 0, time.UTC)
	d2 := time.Date(2025, 3, 15, 0, 30, 0, 0, time.UTC)
	if err := q.Add("g", 1, "a", 7, d1); err != nil {
		t.Fatal(err)
	}
	if err := q.Add("g", 1, "a", 7, d2); err != nil {
		t.Fatal(err)
	}

	day1, err := q.TakeDay("2025-03-14")
	if err != nil {
		t.Fatal(err)
	}
	if day1["g"]["1:a"].Knuts != 7 {
		t.Fatalf("day1 = %+v", day1)
	}
	day2, err := q.TakeDay("2025-03-15")
	if err != nil {
		t.Fatal(err)
	}
	if day2["g"]["1:a"].Knuts != 7 {
		t.Fatalf("day2 = %+v", day2)
	}
}

func TestCooldown(t *testing.T) {
	c := NewCooldown(15 * time.Second)
	clock := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	if !c.Allow(1, "alice") {
		t.Fatalf("first earn should be allowed")
	}
	if c.Allow(1, "alice") {
		t.Fatalf("immediate repeat should be blocked")
	}
	// Another wallet of the same owner has its own window.
	if !c.Allow(1, "beatrice") {
		t.Fatalf("other wallet should be allowed")
	}
	if !c.Allow(2, "alice") {
		t.Fatalf("other owner should be allowed")
	}

	clock = clock.Add(14 * time.Second)
	if c.Allow(1, "alice") {
		t.Fatalf("14s is inside the window")
	}
	clock = clock.Add(1 * time.Second)
	if !c.Allow(1, "alice") {
		t.Fatalf("15s should reopen the window")
	}
}
