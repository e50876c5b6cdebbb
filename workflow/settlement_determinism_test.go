package workflow

import (
	"sync"
	"testing"

	"github.com/wagelink/workpay_backend/models"
)

// NOTE: These tests are intentionally DB-free. They validate the intended
// serialization semantics:
// - settlement is single-writer-per-employee (AcquireSettlementLock)
// - terminal states make claim and resolve naturally single-shot
//
// Full DB integration tests should be added in an environment that can run
// MySQL.

type fakeSettler struct {
	muByEmployee map[string]*sync.Mutex
	mu           sync.Mutex
	states       map[string]models.EscrowState
	released     int
}

func newFakeSettler() *fakeSettler {
	return &fakeSettler{
		muByEmployee: map[string]*sync.Mutex{},
		states:       map[string]models.EscrowState{},
	}
}

func (s *fakeSettler) claim(employee string) {
	// Serialize per employee (AcquireSettlementLock).
	s.mu.Lock()
	em := s.muByEmployee[employee]
	if em == nil {
		em = &sync.Mutex{}
		s.muByEmployee[employee] = em
	}
	s.mu.Unlock()

	em.Lock()
	defer em.Unlock()

	// Re-read state under the lock (GetEscrowForUpdate).
	s.mu.Lock()
	state := s.states[employee]
	s.mu.Unlock()
	if state != models.EscrowStateActive {
		return
	}

	s.mu.Lock()
	s.states[employee] = models.EscrowStateReleased
	s.released++
	s.mu.Unlock()
}

func TestConcurrentClaims_ReleaseExactlyOnce(t *testing.T) {
	s := newFakeSettler()
	s.states["wallet-1"] = models.EscrowStateActive

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.claim("wallet-1")
		}()
	}
	wg.Wait()

	if s.released != 1 {
		t.Fatalf("expected exactly 1 release, got %d", s.released)
	}
	if s.states["wallet-1"] != models.EscrowStateReleased {
		t.Fatalf("state = %s, want Released", s.states["wallet-1"])
	}
}

func TestConcurrentClaims_DifferentEmployeesDoNotInterfere(t *testing.T) {
	s := newFakeSettler()
	s.states["wallet-1"] = models.EscrowStateActive
	s.states["wallet-2"] = models.EscrowStateActive
	s.states["wallet-3"] = models.EscrowStateDisputed

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		for _, employee := range []string{"wallet-1", "wallet-2", "wallet-3"} {
			wg.Add(1)
			go func(employee string) {
				defer wg.Done()
				s.claim(employee)
			}(employee)
		}
	}
	wg.Wait()

	if s.released != 2 {
		t.Fatalf("expected 2 releases (one per Active employee), got %d", s.released)
	}
	if s.states["wallet-3"] != models.EscrowStateDisputed {
		t.Fatalf("claim mutated a Disputed record: %s", s.states["wallet-3"])
	}
}
