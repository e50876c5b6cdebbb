package models_test

import (
	"errors"
	"testing"

	"github.com/wagelink/workpay_backend/models"
	"github.com/wagelink/workpay_backend/utils"
)

// NOTE: These tests are intentionally DB-free. They validate the write-once
// attendance semantics and the hour truncation rule on the record itself;
// persistence and uniqueness are covered by the (employee, day) index.

func commitment(b byte) []byte {
	c := make([]byte, 32)
	for i := range c {
		c[i] = b
	}
	return c
}

func TestDayIndex(t *testing.T) {
	cases := []struct {
		ts   int64
		want uint64
	}{
		{0, 0},
		{86399, 0},
		{86400, 1},
		{86401, 1},
		{1700000000, 19675},
	}
	for _, c := range cases {
		if got := models.DayIndex(c.ts); got != c.want {
			t.Fatalf("DayIndex(%d) = %d, want %d", c.ts, got, c.want)
		}
	}
}

func TestCheckIn_IsWriteOnce(t *testing.T) {
	var rec models.AttendanceRecord

	if err := rec.ApplyCheckIn(1000, commitment(1)); err != nil {
		t.Fatalf("first check-in failed: %v", err)
	}
	if rec.CheckIn == nil || *rec.CheckIn != 1000 {
		t.Fatalf("check-in not recorded: %+v", rec)
	}

	err := rec.ApplyCheckIn(2000, commitment(2))
	if !errors.Is(err, utils.ErrAlreadyCheckedIn) {
		t.Fatalf("second check-in: got %v, want ErrAlreadyCheckedIn", err)
	}
	if *rec.CheckIn != 1000 {
		t.Fatalf("failed check-in mutated the record: %d", *rec.CheckIn)
	}
}

func TestCheckOut_RequiresCheckIn(t *testing.T) {
	var rec models.AttendanceRecord

	err := rec.ApplyCheckOut(2000, commitment(1))
	if !errors.Is(err, utils.ErrNoCheckIn) {
		t.Fatalf("check-out without check-in: got %v, want ErrNoCheckIn", err)
	}

	if err := rec.ApplyCheckIn(1000, commitment(1)); err != nil {
		t.Fatalf("check-in failed: %v", err)
	}
	if err := rec.ApplyCheckOut(2000, commitment(2)); err != nil {
		t.Fatalf("check-out failed: %v", err)
	}
	err = rec.ApplyCheckOut(3000, commitment(3))
	if !errors.Is(err, utils.ErrAlreadyCheckedOut) {
		t.Fatalf("second check-out: got %v, want ErrAlreadyCheckedOut", err)
	}
	if *rec.CheckOut != 2000 {
		t.Fatalf("failed check-out mutated the record: %d", *rec.CheckOut)
	}
}

func TestWorkedHours_TruncatesPartialHours(t *testing.T) {
	in := int64(10000)
	cases := []struct {
		name string
		out  int64
		want uint64
	}{
		{"one second short of an hour", in + 3599, 0},
		{"exactly one hour", in + 3600, 1},
		{"one second over an hour", in + 3601, 1},
		{"eight and a half hours", in + 8*3600 + 1800, 8},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out := c.out
			rec := models.AttendanceRecord{CheckIn: &in, CheckOut: &out}
			if got := rec.WorkedHours(); got != c.want {
				t.Fatalf("WorkedHours() = %d, want %d", got, c.want)
			}
		})
	}
}

func TestWorkedHours_MissingTimestampContributesZero(t *testing.T) {
	ts := int64(10000)

	if got := (models.AttendanceRecord{}).WorkedHours(); got != 0 {
		t.Fatalf("empty record: got %d hours", got)
	}
	if got := (models.AttendanceRecord{CheckIn: &ts}).WorkedHours(); got != 0 {
		t.Fatalf("check-in only: got %d hours", got)
	}
	if got := (models.AttendanceRecord{CheckOut: &ts}).WorkedHours(); got != 0 {
		t.Fatalf("check-out only: got %d hours", got)
	}
}
