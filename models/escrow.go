package models

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wagelink/workpay_backend/config"
	"github.com/wagelink/workpay_backend/utils"
	"gorm.io/gorm"
)

type EscrowState string

const (
	EscrowStateActive   EscrowState = "A"
	EscrowStateDisputed EscrowState = "D"
	EscrowStateReleased EscrowState = "RL"
	EscrowStateRefunded EscrowState = "RF"
)

// IsTerminal reports whether no further transition or transfer is permitted.
func (s EscrowState) IsTerminal() bool {
	return s == EscrowStateReleased || s == EscrowStateRefunded
}

// EscrowRecord holds one settlement agreement per employee. Amount is stored
// as decimal(39,0) so any signed 128-bit value fits losslessly.
type EscrowRecord struct {
	ID               int             `gorm:"primary_key" json:"id"`
	Employee         string          `gorm:"size:64;not null;uniqueIndex" json:"employee"`
	Employer         string          `gorm:"size:64;not null" json:"employer"`
	SourceId         string          `gorm:"size:64;not null" json:"source_id"`
	DisputeResolver  string          `gorm:"size:64;not null" json:"dispute_resolver"`
	FeeWallet        string          `gorm:"size:64;not null" json:"fee_wallet"`
	AssetId          string          `gorm:"size:64;not null" json:"asset_id"`
	Amount           decimal.Decimal `gorm:"type:decimal(39,0);not null" json:"amount"`
	RequiredHours    uint64          `gorm:"not null" json:"required_hours"`
	ManualExtraHours int64           `gorm:"not null;default:0" json:"manual_extra_hours"`
	State            EscrowState     `gorm:"type:enum('A','D','RL','RF');default:'A'" json:"state"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e *EscrowRecord) EnsureActive() error {
	if e.State != EscrowStateActive {
		return utils.ErrEscrowNotActive
	}
	return nil
}

func (e *EscrowRecord) EnsureDisputable() error {
	if e.State != EscrowStateActive {
		return utils.ErrCannotDispute
	}
	return nil
}

func (e *EscrowRecord) EnsureDisputed() error {
	if e.State != EscrowStateDisputed {
		return utils.ErrNoActiveDispute
	}
	return nil
}

// EnsureParty checks the caller against the record's own principals, not an
// allow-list: only the stored employer or employee may open a dispute.
func (e *EscrowRecord) EnsureParty(wallet string) error {
	if wallet != e.Employer && wallet != e.Employee {
		return utils.ErrNotAuthorizedParty
	}
	return nil
}

func (e *EscrowRecord) EnsureResolver(wallet string) error {
	if wallet != e.DisputeResolver {
		return utils.ErrNotDisputeResolver
	}
	return nil
}

// AddExtraHours credits manually-verified hours. Monotone: negative input is
// rejected, and overflow fails loudly rather than wrapping.
func (e *EscrowRecord) AddExtraHours(hours int64) error {
	if hours < 0 {
		return utils.ErrInvalidHours
	}
	if e.ManualExtraHours > math.MaxInt64-hours {
		return utils.ErrHoursOverflow
	}
	e.ManualExtraHours += hours
	return nil
}

// HoursSatisfied reports whether workedHours plus the manual credit reach
// RequiredHours. The comparison is inclusive: with a threshold of 40, a
// total of 39 fails and a total of 40 passes.
func (e *EscrowRecord) HoursSatisfied(workedHours uint64) bool {
	return workedHours+uint64(e.ManualExtraHours) >= e.RequiredHours
}

// GetEscrow returns the record for employee. Unlike attendance reads,
// absence is an error here.
func GetEscrow(ctx context.Context, employee string) (*EscrowRecord, error) {

	db := config.GetDB()
	var result EscrowRecord
	err := db.WithContext(ctx).Where("employee = ?", employee).Take(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrEscrowNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetEscrowForUpdate locks and returns the record inside the caller's
// transaction. Settlement operations go through this so concurrent calls on
// the same employee serialize at the row.
func GetEscrowForUpdate(ctx context.Context, tx *gorm.DB, employee string) (*EscrowRecord, error) {

	var result EscrowRecord
	err := tx.WithContext(ctx).
		Clauses(lockForUpdate()).
		Where("employee = ?", employee).Take(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrEscrowNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}
