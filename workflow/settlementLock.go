package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquireSettlementLock serializes settlement per employee across instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same *gorm.DB that will do the settlement transaction.
func AcquireSettlementLock(tx *gorm.DB, employee string) error {
	lockName := fmt.Sprintf("settlement:%s", employee)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire settlement lock for employee=%s", employee)
	}
	return nil
}

func ReleaseSettlementLock(tx *gorm.DB, employee string) {
	lockName := fmt.Sprintf("settlement:%s", employee)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
