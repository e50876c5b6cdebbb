package models_test

import (
	"errors"
	"math"
	"testing"

	"github.com/wagelink/workpay_backend/models"
	"github.com/wagelink/workpay_backend/utils"
)

func TestEscrowState_Terminality(t *testing.T) {
	cases := []struct {
		state    models.EscrowState
		terminal bool
	}{
		{models.EscrowStateActive, false},
		{models.EscrowStateDisputed, false},
		{models.EscrowStateReleased, true},
		{models.EscrowStateRefunded, true},
	}
	for _, c := range cases {
		if got := c.state.IsTerminal(); got != c.terminal {
			t.Fatalf("IsTerminal(%s) = %v, want %v", c.state, got, c.terminal)
		}
	}
}

func TestEscrowGuards_ByState(t *testing.T) {
	for _, state := range []models.EscrowState{
		models.EscrowStateActive, models.EscrowStateDisputed,
		models.EscrowStateReleased, models.EscrowStateRefunded,
	} {
		rec := models.EscrowRecord{State: state}

		if err := rec.EnsureActive(); (err == nil) != (state == models.EscrowStateActive) {
			t.Fatalf("EnsureActive in %s: %v", state, err)
		}
		if err := rec.EnsureDisputable(); (err == nil) != (state == models.EscrowStateActive) {
			t.Fatalf("EnsureDisputable in %s: %v", state, err)
		}
		if err := rec.EnsureDisputed(); (err == nil) != (state == models.EscrowStateDisputed) {
			t.Fatalf("EnsureDisputed in %s: %v", state, err)
		}
	}

	// A second dispute fails with CannotDispute, not NoActiveDispute.
	rec := models.EscrowRecord{State: models.EscrowStateDisputed}
	if err := rec.EnsureDisputable(); !errors.Is(err, utils.ErrCannotDispute) {
		t.Fatalf("dispute while Disputed: got %v, want ErrCannotDispute", err)
	}
	// Resolving while Active fails with NoActiveDispute.
	rec = models.EscrowRecord{State: models.EscrowStateActive}
	if err := rec.EnsureDisputed(); !errors.Is(err, utils.ErrNoActiveDispute) {
		t.Fatalf("resolve while Active: got %v, want ErrNoActiveDispute", err)
	}
}

func TestEscrowGuards_Parties(t *testing.T) {
	rec := models.EscrowRecord{
		Employee:        "wallet-employee",
		Employer:        "wallet-employer",
		DisputeResolver: "wallet-resolver",
	}

	if err := rec.EnsureParty("wallet-employee"); err != nil {
		t.Fatalf("employee is a party: %v", err)
	}
	if err := rec.EnsureParty("wallet-employer"); err != nil {
		t.Fatalf("employer is a party: %v", err)
	}
	if err := rec.EnsureParty("wallet-resolver"); !errors.Is(err, utils.ErrNotAuthorizedParty) {
		t.Fatalf("resolver is not a dispute party: got %v", err)
	}

	if err := rec.EnsureResolver("wallet-resolver"); err != nil {
		t.Fatalf("resolver check failed: %v", err)
	}
	// Exact match only: employer and employee cannot resolve.
	if err := rec.EnsureResolver("wallet-employer"); !errors.Is(err, utils.ErrNotDisputeResolver) {
		t.Fatalf("employer resolving: got %v, want ErrNotDisputeResolver", err)
	}
}

func TestHoursSatisfied_ThresholdBoundary(t *testing.T) {
	rec := models.EscrowRecord{RequiredHours: 40}

	if rec.HoursSatisfied(39) {
		t.Fatalf("39 of 40 hours must not satisfy the threshold")
	}
	if !rec.HoursSatisfied(40) {
		t.Fatalf("exactly 40 of 40 hours must satisfy the threshold")
	}
	if !rec.HoursSatisfied(41) {
		t.Fatalf("41 of 40 hours must satisfy the threshold")
	}

	// Manual credit counts toward the same threshold.
	rec.ManualExtraHours = 1
	if !rec.HoursSatisfied(39) {
		t.Fatalf("39 worked + 1 manual must satisfy a threshold of 40")
	}
	rec.ManualExtraHours = 40
	if !rec.HoursSatisfied(0) {
		t.Fatalf("manual hours alone must be able to satisfy the threshold")
	}

	// A zero threshold is always met, even with no hours at all.
	rec = models.EscrowRecord{RequiredHours: 0}
	if !rec.HoursSatisfied(0) {
		t.Fatalf("zero threshold must be satisfied by zero hours")
	}
}

func TestAddExtraHours(t *testing.T) {
	rec := models.EscrowRecord{State: models.EscrowStateActive}

	if err := rec.AddExtraHours(5); err != nil {
		t.Fatalf("AddExtraHours(5): %v", err)
	}
	if err := rec.AddExtraHours(0); err != nil {
		t.Fatalf("AddExtraHours(0): %v", err)
	}
	if rec.ManualExtraHours != 5 {
		t.Fatalf("manual hours = %d, want 5", rec.ManualExtraHours)
	}

	if err := rec.AddExtraHours(-1); !errors.Is(err, utils.ErrInvalidHours) {
		t.Fatalf("negative hours: got %v, want ErrInvalidHours", err)
	}
	if rec.ManualExtraHours != 5 {
		t.Fatalf("failed add mutated the record: %d", rec.ManualExtraHours)
	}

	rec.ManualExtraHours = math.MaxInt64 - 1
	if err := rec.AddExtraHours(1); err != nil {
		t.Fatalf("add to exactly MaxInt64: %v", err)
	}
	if err := rec.AddExtraHours(1); !errors.Is(err, utils.ErrHoursOverflow) {
		t.Fatalf("overflow: got %v, want ErrHoursOverflow", err)
	}
	if rec.ManualExtraHours != math.MaxInt64 {
		t.Fatalf("overflow mutated the record: %d", rec.ManualExtraHours)
	}
}
