package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/wagelink/workpay_backend/config"
)

// AttendanceSummaryResponse is one employee's aggregate over a day range:
// how many days have any record, how many are complete (both timestamps),
// and the whole worked hours those complete days add up to.
type AttendanceSummaryResponse struct {
	Employee     string `json:"employee"`
	DaysRecorded int64  `json:"days_recorded"`
	DaysComplete int64  `json:"days_complete"`
	WorkedHours  uint64 `json:"worked_hours"`
}

// GetAttendanceSummaryReport aggregates attendance per employee for day
// indexes in [fromDay, toDay]. Hour truncation matches settlement: whole
// hours per day, partial hours dropped, then summed.
func GetAttendanceSummaryReport(ctx context.Context, fromDay uint64, toDay uint64) ([]*AttendanceSummaryResponse, error) {

	started := time.Now()
	defer logSlowReport(ctx, "attendance_summary", started, map[string]any{"from_day": fromDay, "to_day": toDay})

	cacheKey := fmt.Sprintf("Report:AttendanceSummary:%d:%d", fromDay, toDay)
	if reportCacheEnabled() {
		var cached []*AttendanceSummaryResponse
		if ok, err := cacheGet(cacheKey, &cached); err == nil && ok {
			return cached, nil
		}
	}

	db := config.GetDB()
	var results []*AttendanceSummaryResponse
	err := db.WithContext(ctx).Raw(`
		SELECT
			employee,
			COUNT(*) AS days_recorded,
			SUM(CASE WHEN check_in IS NOT NULL AND check_out IS NOT NULL THEN 1 ELSE 0 END) AS days_complete,
			COALESCE(SUM(CASE
				WHEN check_in IS NOT NULL AND check_out IS NOT NULL AND check_out > check_in
				THEN FLOOR((check_out - check_in) / 3600)
				ELSE 0
			END), 0) AS worked_hours
		FROM attendance_records
		WHERE day BETWEEN ? AND ?
		GROUP BY employee
		ORDER BY employee ASC
	`, fromDay, toDay).Scan(&results).Error
	if err != nil {
		return nil, err
	}

	if reportCacheEnabled() {
		_ = cacheSet(cacheKey, results, reportCacheTTL())
	}
	return results, nil
}
