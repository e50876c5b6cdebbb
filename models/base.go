package models

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/wagelink/workpay_backend/utils"
	"gorm.io/gorm/clause"
)

func lockForUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

// IsDuplicateKey reports whether err is a MySQL unique-constraint violation.
// Concurrent inserts of the same (employee, day) row surface here instead of
// through the row lock.
func IsDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

func walletFromContext(ctx context.Context) (string, error) {
	wallet, ok := utils.GetWalletFromContext(ctx)
	if !ok || wallet == "" {
		return "", utils.ErrUnauthorized
	}
	return wallet, nil
}
