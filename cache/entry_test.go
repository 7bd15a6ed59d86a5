package cache

import (
	"testing"
	"time"
)

func TestEntry_TTLZeroExpiresImmediately(t *testing.T) {
	e := NewEntry([]byte(`{"v":1}`), 0)
	if !e.IsExpired(time.Now()) {
		t.Error("entry with TTL 0 must be expired immediately")
	}
}

func TestEntry_NoExpiryNeverExpires(t *testing.T) {
	e := NewEntry([]byte(`{"v":1}`), NoExpiry)
	farFuture := time.Now().Add(100 * 365 * 24 * time.Hour)
	if e.IsExpired(farFuture) {
		t.Error("entry with NoExpiry must never expire")
	}
}

func TestEntry_PositiveTTL(t *testing.T) {
	e := NewEntry([]byte(`{"v":1}`), time.Minute)
	now := time.Now()
	if e.IsExpired(now) {
		t.Error("fresh entry should not be expired")
	}
	if !e.IsExpired(now.Add(2 * time.Minute)) {
		t.Error("entry past its TTL should be expired")
	}
}

func TestEntry_Touch(t *testing.T) {
	e := NewEntry([]byte(`{}`), time.Minute)
	before := e.LastAccessed

	later := before.Add(time.Second)
	e.Touch(later)
	e.Touch(later.Add(time.Second))

	if e.AccessCount != 2 {
		t.Errorf("AccessCount = %d, want 2", e.AccessCount)
	}
	if !e.LastAccessed.After(before) {
		t.Error("Touch should advance LastAccessed")
	}
}

func TestEntry_SizeEstimate(t *testing.T) {
	value := []byte(`{"primary":{"strength":37}}`)
	e := NewEntry(value, time.Minute)
	if e.Size <= len(value) {
		t.Errorf("Size = %d, want value length plus overhead", e.Size)
	}
}

func TestValidateKey(t *testing.T) {
	if err := ValidateKey("actor:a1:3"); err != nil {
		t.Errorf("valid key rejected: %v", err)
	}
	if err := ValidateKey(""); err != ErrInvalidKey {
		t.Errorf("empty key = %v, want ErrInvalidKey", err)
	}
	if err := ValidateKey("bad\nkey"); err != ErrInvalidKey {
		t.Errorf("newline key = %v, want ErrInvalidKey", err)
	}
	long := make([]byte, MaxKeyLength+1)
	for i := range long {
		long[i] = 'k'
	}
	if err := ValidateKey(string(long)); err != ErrKeyTooLong {
		t.Errorf("oversized key = %v, want ErrKeyTooLong", err)
	}
}

func TestSnapshotKeys(t *testing.T) {
	if got := SnapshotKey("a1", 3); got != "actor:a1:3" {
		t.Errorf("SnapshotKey = %q", got)
	}
	legacy := LegacySnapshotKeys("a1", 3)
	if len(legacy) != 2 || legacy[0] != "a1:3" || legacy[1] != "actor_snapshot:a1" {
		t.Errorf("LegacySnapshotKeys = %v", legacy)
	}
}
