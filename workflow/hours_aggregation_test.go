package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/wagelink/workpay_backend/models"
)

// NOTE: These tests are intentionally DB-free. The fake source stands in for
// the attendance register behind the AttendanceSource boundary; aggregation
// must behave identically against any source.

type fakeSource struct {
	records map[uint64]models.AttendanceRecord
	failOn  map[uint64]error
	calls   []uint64
}

func (f *fakeSource) GetAttendance(_ context.Context, _ string, day uint64) (*models.AttendanceRecord, bool, error) {
	f.calls = append(f.calls, day)
	if err, ok := f.failOn[day]; ok {
		return nil, false, err
	}
	rec, ok := f.records[day]
	if !ok {
		return nil, false, nil
	}
	return &rec, true, nil
}

func ts(v int64) *int64 { return &v }

func day(in, out int64) models.AttendanceRecord {
	return models.AttendanceRecord{CheckIn: &in, CheckOut: &out}
}

func TestAggregateWorkedHours_WindowBounds(t *testing.T) {
	const currentDay = uint64(1000)
	source := &fakeSource{records: map[uint64]models.AttendanceRecord{
		currentDay:      day(0, 2*3600),  // today counts
		currentDay - 29: day(0, 3*3600),  // oldest day inside the window
		currentDay - 30: day(0, 40*3600), // just outside: must be ignored
	}}

	total, err := AggregateWorkedHours(context.Background(), source, "wallet-1", currentDay)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if total != 5 {
		t.Fatalf("total = %d, want 5 (2 today + 3 on the window edge)", total)
	}
	if len(source.calls) != AggregationWindowDays {
		t.Fatalf("issued %d reads, want exactly %d", len(source.calls), AggregationWindowDays)
	}
	for _, d := range source.calls {
		if d == currentDay-30 {
			t.Fatalf("read outside the window: day %d", d)
		}
	}
}

func TestAggregateWorkedHours_IncompleteRecordsContributeZero(t *testing.T) {
	const currentDay = uint64(50)
	source := &fakeSource{records: map[uint64]models.AttendanceRecord{
		currentDay:     {CheckIn: ts(100)},            // no check-out
		currentDay - 1: {CheckOut: ts(100)},           // no check-in
		currentDay - 2: {},                            // empty record
		currentDay - 3: day(1000, 1000+3599),          // under an hour
		currentDay - 4: day(1000, 1000+7200),          // two whole hours
	}}

	total, err := AggregateWorkedHours(context.Background(), source, "wallet-1", currentDay)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
}

// Near ledger genesis the window is shorter than 30 days; offsets past
// currentDay must stop the loop instead of underflowing.
func TestAggregateWorkedHours_EarlyStopNearGenesis(t *testing.T) {
	const currentDay = uint64(5)
	source := &fakeSource{records: map[uint64]models.AttendanceRecord{
		0: day(0, 3600),
		5: day(0, 3600),
	}}

	total, err := AggregateWorkedHours(context.Background(), source, "wallet-1", currentDay)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
	if len(source.calls) != 6 {
		t.Fatalf("issued %d reads, want 6 (days 5..0)", len(source.calls))
	}
}

// "Could not read" is not "was not there": a source failure aborts the whole
// aggregation instead of contributing zero.
func TestAggregateWorkedHours_SourceFailureAborts(t *testing.T) {
	const currentDay = uint64(100)
	boom := errors.New("source unavailable")
	source := &fakeSource{
		records: map[uint64]models.AttendanceRecord{currentDay: day(0, 3600)},
		failOn:  map[uint64]error{currentDay - 3: boom},
	}

	_, err := AggregateWorkedHours(context.Background(), source, "wallet-1", currentDay)
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want the source error", err)
	}
}

func TestAggregateWorkedHours_NoRecords(t *testing.T) {
	source := &fakeSource{}
	total, err := AggregateWorkedHours(context.Background(), source, "wallet-1", 1000)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if total != 0 {
		t.Fatalf("total = %d, want 0", total)
	}
}
