package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wagelink/workpay_backend/config"
)

// Challenge is a short-lived nonce handed to clients. The client hashes it
// (together with its own secret material) into the 32-byte commitment sent
// with check-in/check-out. The ledger core stores commitments verbatim and
// never verifies them; the challenge service only bounds their freshness.
type Challenge struct {
	Challenge string `json:"challenge"`
	Expires   int64  `json:"expires"`
}

const (
	challengeRedisKey = "attendance:challenge"
	challengeLifespan = 60 * time.Second
)

// In-memory fallback for environments without redis (tests, local dev).
var (
	challengeMu     sync.Mutex
	fallbackCurrent Challenge
)

// CurrentChallenge returns the active challenge, rotating it when expired.
func CurrentChallenge(now time.Time) (Challenge, error) {
	var c Challenge
	found, err := config.GetRedisObject(challengeRedisKey, &c)
	if err != nil {
		return Challenge{}, err
	}
	if found && now.Unix() < c.Expires {
		return c, nil
	}

	if config.GetRedisDB() != nil {
		c = newChallenge(now)
		if err := config.SetRedisObject(challengeRedisKey, c, challengeLifespan); err != nil {
			return Challenge{}, err
		}
		return c, nil
	}

	challengeMu.Lock()
	defer challengeMu.Unlock()
	if fallbackCurrent.Challenge == "" || now.Unix() >= fallbackCurrent.Expires {
		fallbackCurrent = newChallenge(now)
	}
	return fallbackCurrent, nil
}

func newChallenge(now time.Time) Challenge {
	seed := uuid.NewString() + fmt.Sprint(now.UnixNano())
	sum := sha256.Sum256([]byte(seed))
	return Challenge{
		Challenge: hex.EncodeToString(sum[:]),
		Expires:   now.Add(challengeLifespan).Unix(),
	}
}
