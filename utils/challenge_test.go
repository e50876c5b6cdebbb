package utils

import (
	"encoding/hex"
	"testing"
	"time"
)

// Runs against the in-memory fallback (no redis in unit tests).

func TestCurrentChallenge_StableWithinLifespan(t *testing.T) {
	now := time.Now().UTC()

	first, err := CurrentChallenge(now)
	if err != nil {
		t.Fatalf("challenge failed: %v", err)
	}
	if raw, err := hex.DecodeString(first.Challenge); err != nil || len(raw) != 32 {
		t.Fatalf("challenge is not a 32-byte hex digest: %q", first.Challenge)
	}
	if first.Expires != now.Add(60*time.Second).Unix() {
		t.Fatalf("expires = %d, want %d", first.Expires, now.Add(60*time.Second).Unix())
	}

	second, err := CurrentChallenge(now.Add(30 * time.Second))
	if err != nil {
		t.Fatalf("challenge failed: %v", err)
	}
	if second.Challenge != first.Challenge {
		t.Fatalf("challenge rotated before expiry")
	}
}

func TestCurrentChallenge_RotatesAfterExpiry(t *testing.T) {
	now := time.Now().UTC()

	first, err := CurrentChallenge(now)
	if err != nil {
		t.Fatalf("challenge failed: %v", err)
	}
	second, err := CurrentChallenge(now.Add(61 * time.Second))
	if err != nil {
		t.Fatalf("challenge failed: %v", err)
	}
	if second.Challenge == first.Challenge {
		t.Fatalf("challenge did not rotate after expiry")
	}
	if second.Expires <= first.Expires {
		t.Fatalf("expiry did not advance: %d -> %d", first.Expires, second.Expires)
	}
}
