package models

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wagelink/workpay_backend/config"
	"github.com/wagelink/workpay_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const SecondsPerDay = 86400

// DayIndex buckets a unix timestamp into its day number. All attendance is
// keyed by (employee, day index); two check-ins on the same UTC day collide.
func DayIndex(ts int64) uint64 {
	if ts < 0 {
		return 0
	}
	return uint64(ts) / SecondsPerDay
}

// EmployeeRegistration marks a wallet as allowed to check in and out.
// Rows are written only by the registrar.
type EmployeeRegistration struct {
	Wallet    string    `gorm:"primaryKey;size:64" json:"wallet"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// AttendanceRecord is one employee-day. CheckIn and CheckOut are write-once:
// nil means "not yet", and a set value is never overwritten. The commitments
// are stored verbatim and never verified here.
type AttendanceRecord struct {
	ID                 int       `gorm:"primary_key" json:"id"`
	Employee           string    `gorm:"size:64;not null;uniqueIndex:idx_attendance_employee_day,priority:1" json:"employee"`
	Day                uint64    `gorm:"not null;uniqueIndex:idx_attendance_employee_day,priority:2" json:"day"`
	CheckIn            *int64    `json:"check_in"`
	CheckOut           *int64    `json:"check_out"`
	CheckInCommitment  []byte    `gorm:"type:varbinary(32)" json:"check_in_commitment"`
	CheckOutCommitment []byte    `gorm:"type:varbinary(32)" json:"check_out_commitment"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *AttendanceRecord) ApplyCheckIn(ts int64, commitment []byte) error {
	if r.CheckIn != nil {
		return utils.ErrAlreadyCheckedIn
	}
	r.CheckIn = &ts
	r.CheckInCommitment = commitment
	return nil
}

func (r *AttendanceRecord) ApplyCheckOut(ts int64, commitment []byte) error {
	if r.CheckIn == nil {
		return utils.ErrNoCheckIn
	}
	if r.CheckOut != nil {
		return utils.ErrAlreadyCheckedOut
	}
	r.CheckOut = &ts
	r.CheckOutCommitment = commitment
	return nil
}

// WorkedHours is the record's contribution to hour aggregation: whole hours
// between check-in and check-out, partial hours dropped. A record missing
// either timestamp contributes zero.
func (r AttendanceRecord) WorkedHours() uint64 {
	if r.CheckIn == nil || r.CheckOut == nil {
		return 0
	}
	if *r.CheckOut <= *r.CheckIn {
		return 0
	}
	return uint64(*r.CheckOut-*r.CheckIn) / 3600
}

// RegisterEmployee adds wallet to the register. Only the registrar may call
// it; re-registering an already-registered wallet is a no-op.
func RegisterEmployee(ctx context.Context, wallet string) (*EmployeeRegistration, error) {

	if _, err := requireRegistrar(ctx); err != nil {
		return nil, err
	}
	if wallet == "" {
		return nil, errors.New("employee wallet is required")
	}

	db := config.GetDB()
	row := EmployeeRegistration{Wallet: wallet}
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func IsRegistered(ctx context.Context, tx *gorm.DB, wallet string) (bool, error) {
	var count int64
	if err := tx.WithContext(ctx).Model(&EmployeeRegistration{}).Where("wallet = ?", wallet).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListRegisteredEmployees returns every wallet in the register. Registrar only.
func ListRegisteredEmployees(ctx context.Context) ([]*EmployeeRegistration, error) {

	if _, err := requireRegistrar(ctx); err != nil {
		return nil, err
	}

	db := config.GetDB()
	var results []*EmployeeRegistration
	if err := db.WithContext(ctx).Order("created_at ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// CheckIn records the caller's check-in for today. Write-once per day: a
// second call the same day fails with AlreadyCheckedIn and nothing changes.
func CheckIn(ctx context.Context, commitment []byte) (*AttendanceRecord, error) {
	return writeAttendance(ctx, commitment, true)
}

// CheckOut records the caller's check-out for today. Requires a prior
// check-in the same day and is itself write-once.
func CheckOut(ctx context.Context, commitment []byte) (*AttendanceRecord, error) {
	return writeAttendance(ctx, commitment, false)
}

func writeAttendance(ctx context.Context, commitment []byte, isCheckIn bool) (*AttendanceRecord, error) {

	logger := config.GetLogger()
	funcName := "CheckOut"
	if isCheckIn {
		funcName = "CheckIn"
	}

	employee, err := walletFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if len(commitment) != 32 {
		return nil, utils.ErrInvalidCommitment
	}

	now := time.Now().UTC().Unix()
	day := DayIndex(now)

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	registered, err := IsRegistered(ctx, tx, employee)
	if err != nil {
		tx.Rollback()
		config.LogError(logger, "models", funcName, "registration lookup", logrus.Fields{"employee": employee}, err)
		return nil, err
	}
	if !registered {
		tx.Rollback()
		return nil, utils.ErrNotRegistered
	}

	var record AttendanceRecord
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("employee = ? AND day = ?", employee, day).
		Take(&record).Error
	switch {
	case err == nil:
		if isCheckIn {
			err = record.ApplyCheckIn(now, commitment)
		} else {
			err = record.ApplyCheckOut(now, commitment)
		}
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		updates := map[string]interface{}{"check_in": record.CheckIn, "check_in_commitment": record.CheckInCommitment}
		if !isCheckIn {
			updates = map[string]interface{}{"check_out": record.CheckOut, "check_out_commitment": record.CheckOutCommitment}
		}
		if err := tx.Model(&AttendanceRecord{}).Where("id = ?", record.ID).Updates(updates).Error; err != nil {
			tx.Rollback()
			config.LogError(logger, "models", funcName, "attendance update", logrus.Fields{"employee": employee, "day": day}, err)
			return nil, err
		}

	case errors.Is(err, gorm.ErrRecordNotFound):
		if !isCheckIn {
			tx.Rollback()
			return nil, utils.ErrNoCheckIn
		}
		record = AttendanceRecord{Employee: employee, Day: day, CheckIn: &now, CheckInCommitment: commitment}
		if err := tx.Create(&record).Error; err != nil {
			tx.Rollback()
			if IsDuplicateKey(err) {
				return nil, utils.ErrAlreadyCheckedIn
			}
			config.LogError(logger, "models", funcName, "attendance insert", logrus.Fields{"employee": employee, "day": day}, err)
			return nil, err
		}

	default:
		tx.Rollback()
		return nil, err
	}

	eventType := EventCheckOut
	if isCheckIn {
		eventType = EventCheckIn
	}
	if err := PublishLedgerEvent(ctx, tx, eventType, employee, day, now, nil); err != nil {
		tx.Rollback()
		config.LogError(logger, "models", funcName, "outbox insert", logrus.Fields{"employee": employee, "day": day}, err)
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// GetAttendance returns the record for (employee, day) and whether one
// exists. Absence is not an error: callers must be able to distinguish "no
// record" from "record with no timestamps yet".
func GetAttendance(ctx context.Context, employee string, day uint64) (*AttendanceRecord, bool, error) {

	db := config.GetDB()
	var result AttendanceRecord
	err := db.WithContext(ctx).Where("employee = ? AND day = ?", employee, day).Take(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &result, true, nil
}
