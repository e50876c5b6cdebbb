package workflow

import (
	"context"
)

// AggregationWindowDays is the rolling lookback for claim: the 30 most
// recent day indexes inclusive of today.
const AggregationWindowDays = 30

// AggregateWorkedHours sums whole worked hours over the aggregation window
// ending at currentDay. Aggregation is stateless: the window is anchored to
// call time, not to escrow creation, and is re-derived on every claim.
// An absent day contributes zero; a source failure aborts the caller,
// because "could not read" is not the same as "was not there".
func AggregateWorkedHours(ctx context.Context, source AttendanceSource, employee string, currentDay uint64) (uint64, error) {

	var total uint64
	for offset := uint64(0); offset < AggregationWindowDays; offset++ {
		// Near ledger genesis the window is shorter than 30 days.
		if currentDay < offset {
			break
		}
		day := currentDay - offset

		record, found, err := source.GetAttendance(ctx, employee, day)
		if err != nil {
			return 0, err
		}
		if !found {
			continue
		}
		total += record.WorkedHours()
	}
	return total, nil
}
