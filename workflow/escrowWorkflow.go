package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/wagelink/workpay_backend/config"
	"github.com/wagelink/workpay_backend/models"
	"github.com/wagelink/workpay_backend/utils"
	"gorm.io/gorm"
)

// NewEscrow is the create input. The employer is the authenticated caller,
// never a body field.
type NewEscrow struct {
	Employee        string          `json:"employee" binding:"required"`
	SourceId        string          `json:"source_id"`
	DisputeResolver string          `json:"dispute_resolver" binding:"required"`
	FeeWallet       string          `json:"fee_wallet" binding:"required"`
	AssetId         string          `json:"asset_id" binding:"required"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	RequiredHours   uint64          `json:"required_hours"`
}

// SettlementSplit computes the two legs of a successful claim. The employee
// leg truncates toward zero and the fee leg takes the remainder, so the legs
// always sum exactly to amount: 1000 -> 950 + 50, 101 -> 95 + 6.
func SettlementSplit(amount decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	employeeAmount := amount.Mul(decimal.NewFromInt(95)).Div(decimal.NewFromInt(100)).Truncate(0)
	feeAmount := amount.Sub(employeeAmount)
	return employeeAmount, feeAmount
}

// CreateEscrow writes the employee's escrow record with state Active and
// zero manual hours. This is an overwrite operation, not a constructor
// guard: an existing record is replaced unconditionally, with a warn log
// when the replaced record was not terminal.
func CreateEscrow(ctx context.Context, input *NewEscrow) (*models.EscrowRecord, error) {

	logger := config.GetLogger()
	employer, err := walletFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !input.Amount.IsPositive() || !input.Amount.Equal(input.Amount.Truncate(0)) {
		return nil, utils.ErrInvalidAmount
	}
	sourceId := input.SourceId
	if sourceId == "" {
		sourceId = DefaultSourceId
	}

	record := models.EscrowRecord{
		Employee:        input.Employee,
		Employer:        employer,
		SourceId:        sourceId,
		DisputeResolver: input.DisputeResolver,
		FeeWallet:       input.FeeWallet,
		AssetId:         input.AssetId,
		Amount:          input.Amount,
		RequiredHours:   input.RequiredHours,
		State:           models.EscrowStateActive,
	}

	lock := obtainBestEffortLock(ctx, logger, input.Employee)
	defer releaseBestEffortLock(ctx, logger, lock)

	db := config.GetDB()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := AcquireSettlementLock(tx.WithContext(ctx), input.Employee); err != nil {
			return err
		}
		defer ReleaseSettlementLock(tx.WithContext(ctx), input.Employee)

		existing, err := models.GetEscrowForUpdate(ctx, tx, input.Employee)
		switch {
		case err == nil:
			if !existing.State.IsTerminal() {
				logger.WithFields(logrus.Fields{
					"field":    "CreateEscrow",
					"employee": input.Employee,
					"employer": employer,
					"state":    existing.State,
				}).Warn("overwriting a non-terminal escrow record")
			}
			record.ID = existing.ID
			record.ManualExtraHours = 0
			if err := tx.WithContext(ctx).Model(&models.EscrowRecord{}).Where("id = ?", existing.ID).
				Select("employer", "source_id", "dispute_resolver", "fee_wallet", "asset_id",
					"amount", "required_hours", "manual_extra_hours", "state").
				Updates(&record).Error; err != nil {
				return err
			}
		case errors.Is(err, utils.ErrEscrowNotFound):
			if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
				return err
			}
		default:
			return err
		}

		now := time.Now().UTC().Unix()
		return models.PublishLedgerEvent(ctx, tx, models.EventEscrowCreated, input.Employee, models.DayIndex(now), now, &record)
	})
	if err != nil {
		config.LogError(logger, "workflow", "CreateEscrow", "escrow create", logrus.Fields{"employee": input.Employee}, err)
		return nil, err
	}
	return &record, nil
}

// AddManualHours credits manually-verified hours onto an Active record.
// Only the stored employer may call it.
func AddManualHours(ctx context.Context, employee string, hours int64) (*models.EscrowRecord, error) {

	caller, err := walletFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var record *models.EscrowRecord
	db := config.GetDB()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := AcquireSettlementLock(tx.WithContext(ctx), employee); err != nil {
			return err
		}
		defer ReleaseSettlementLock(tx.WithContext(ctx), employee)

		record, err = models.GetEscrowForUpdate(ctx, tx, employee)
		if err != nil {
			return err
		}
		if caller != record.Employer {
			return utils.ErrUnauthorized
		}
		if err := record.EnsureActive(); err != nil {
			return err
		}
		if err := record.AddExtraHours(hours); err != nil {
			return err
		}
		return tx.WithContext(ctx).Model(&models.EscrowRecord{}).Where("id = ?", record.ID).
			Update("manual_extra_hours", record.ManualExtraHours).Error
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// FundEscrow moves employer funds into the vault account that backs claims.
// No state transition: funding and settlement are decoupled, and claim
// re-checks the vault balance at its own call time.
func FundEscrow(ctx context.Context, employee string, amount decimal.Decimal) (*models.EscrowRecord, error) {

	caller, err := walletFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() || !amount.Equal(amount.Truncate(0)) {
		return nil, utils.ErrInvalidAmount
	}

	cfg, err := models.GetRegistrarConfig(ctx)
	if err != nil {
		return nil, err
	}

	var record *models.EscrowRecord
	db := config.GetDB()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := AcquireSettlementLock(tx.WithContext(ctx), employee); err != nil {
			return err
		}
		defer ReleaseSettlementLock(tx.WithContext(ctx), employee)

		record, err = models.GetEscrowForUpdate(ctx, tx, employee)
		if err != nil {
			return err
		}
		if caller != record.Employer {
			return utils.ErrUnauthorized
		}
		if err := record.EnsureActive(); err != nil {
			return err
		}
		return models.TransferAsset(tx.WithContext(ctx), record.AssetId, caller, cfg.VaultAccount, amount)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Claim settles an Active escrow for the caller. Checks run in order: state,
// vault balance, aggregated hours. On success the 95/5 split transfers and
// the Released write commit as one unit; any failure rolls everything back.
func Claim(ctx context.Context, registry *SourceRegistry, employee string) (*models.EscrowRecord, error) {

	logger := config.GetLogger()
	caller, err := walletFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if caller != employee {
		return nil, utils.ErrUnauthorized
	}

	cfg, err := models.GetRegistrarConfig(ctx)
	if err != nil {
		return nil, err
	}

	lock := obtainBestEffortLock(ctx, logger, employee)
	defer releaseBestEffortLock(ctx, logger, lock)

	var record *models.EscrowRecord
	db := config.GetDB()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := AcquireSettlementLock(tx.WithContext(ctx), employee); err != nil {
			return err
		}
		defer ReleaseSettlementLock(tx.WithContext(ctx), employee)

		record, err = models.GetEscrowForUpdate(ctx, tx, employee)
		if err != nil {
			return err
		}
		if err := record.EnsureActive(); err != nil {
			return err
		}

		held, err := models.BalanceOf(tx.WithContext(ctx), record.AssetId, cfg.VaultAccount)
		if err != nil {
			return err
		}
		if held.LessThan(record.Amount) {
			return utils.ErrInsufficientFunds
		}

		source, err := registry.Resolve(record.SourceId)
		if err != nil {
			return err
		}
		now := time.Now().UTC().Unix()
		currentDay := models.DayIndex(now)
		worked, err := AggregateWorkedHours(ctx, source, employee, currentDay)
		if err != nil {
			return err
		}
		if !record.HoursSatisfied(worked) {
			return utils.ErrInsufficientHours
		}

		employeeAmount, feeAmount := SettlementSplit(record.Amount)
		if err := models.TransferAsset(tx.WithContext(ctx), record.AssetId, cfg.VaultAccount, record.Employee, employeeAmount); err != nil {
			return err
		}
		if err := models.TransferAsset(tx.WithContext(ctx), record.AssetId, cfg.VaultAccount, record.FeeWallet, feeAmount); err != nil {
			return err
		}

		record.State = models.EscrowStateReleased
		if err := tx.WithContext(ctx).Model(&models.EscrowRecord{}).Where("id = ?", record.ID).
			Update("state", models.EscrowStateReleased).Error; err != nil {
			return err
		}
		return models.PublishLedgerEvent(ctx, tx, models.EventEscrowReleased, employee, currentDay, now, record)
	})
	if err != nil {
		if !isCallerFailure(err) {
			config.LogError(logger, "workflow", "Claim", "settlement", logrus.Fields{"employee": employee}, err)
		}
		return nil, err
	}
	return record, nil
}

// OpenDispute freezes an Active escrow. Either stored party may call it;
// a second dispute, or one against a settled record, fails.
func OpenDispute(ctx context.Context, employee string) (*models.EscrowRecord, error) {

	caller, err := walletFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var record *models.EscrowRecord
	db := config.GetDB()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := AcquireSettlementLock(tx.WithContext(ctx), employee); err != nil {
			return err
		}
		defer ReleaseSettlementLock(tx.WithContext(ctx), employee)

		record, err = models.GetEscrowForUpdate(ctx, tx, employee)
		if err != nil {
			return err
		}
		if err := record.EnsureParty(caller); err != nil {
			return err
		}
		if err := record.EnsureDisputable(); err != nil {
			return err
		}

		record.State = models.EscrowStateDisputed
		if err := tx.WithContext(ctx).Model(&models.EscrowRecord{}).Where("id = ?", record.ID).
			Update("state", models.EscrowStateDisputed).Error; err != nil {
			return err
		}
		now := time.Now().UTC().Unix()
		return models.PublishLedgerEvent(ctx, tx, models.EventEscrowDisputed, employee, models.DayIndex(now), now, record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ResolveDispute settles a Disputed escrow by resolver fiat: the full amount
// goes to one side, no fee split. releaseToEmployee picks the side and the
// terminal state (Released or Refunded).
func ResolveDispute(ctx context.Context, employee string, releaseToEmployee bool) (*models.EscrowRecord, error) {

	logger := config.GetLogger()
	caller, err := walletFromContext(ctx)
	if err != nil {
		return nil, err
	}

	cfg, err := models.GetRegistrarConfig(ctx)
	if err != nil {
		return nil, err
	}

	lock := obtainBestEffortLock(ctx, logger, employee)
	defer releaseBestEffortLock(ctx, logger, lock)

	var record *models.EscrowRecord
	db := config.GetDB()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := AcquireSettlementLock(tx.WithContext(ctx), employee); err != nil {
			return err
		}
		defer ReleaseSettlementLock(tx.WithContext(ctx), employee)

		record, err = models.GetEscrowForUpdate(ctx, tx, employee)
		if err != nil {
			return err
		}
		if err := record.EnsureResolver(caller); err != nil {
			return err
		}
		if err := record.EnsureDisputed(); err != nil {
			return err
		}

		held, err := models.BalanceOf(tx.WithContext(ctx), record.AssetId, cfg.VaultAccount)
		if err != nil {
			return err
		}
		if held.LessThan(record.Amount) {
			return utils.ErrInsufficientFunds
		}

		recipient := record.Employer
		nextState := models.EscrowStateRefunded
		eventType := models.EventEscrowRefunded
		if releaseToEmployee {
			recipient = record.Employee
			nextState = models.EscrowStateReleased
			eventType = models.EventEscrowReleased
		}
		if err := models.TransferAsset(tx.WithContext(ctx), record.AssetId, cfg.VaultAccount, recipient, record.Amount); err != nil {
			return err
		}

		record.State = nextState
		if err := tx.WithContext(ctx).Model(&models.EscrowRecord{}).Where("id = ?", record.ID).
			Update("state", nextState).Error; err != nil {
			return err
		}
		now := time.Now().UTC().Unix()
		return models.PublishLedgerEvent(ctx, tx, eventType, employee, models.DayIndex(now), now, record)
	})
	if err != nil {
		if !isCallerFailure(err) {
			config.LogError(logger, "workflow", "ResolveDispute", "settlement", logrus.Fields{"employee": employee}, err)
		}
		return nil, err
	}
	return record, nil
}

// Deposit credits an account on the local asset ledger. This is the on-ramp
// where value enters from outside; only the registrar may call it.
func Deposit(ctx context.Context, assetId string, wallet string, amount decimal.Decimal) error {

	caller, err := walletFromContext(ctx)
	if err != nil {
		return err
	}
	cfg, err := models.GetRegistrarConfig(ctx)
	if err != nil {
		return err
	}
	if caller != cfg.Registrar {
		return utils.ErrUnauthorized
	}
	if !amount.IsPositive() || !amount.Equal(amount.Truncate(0)) {
		return utils.ErrInvalidAmount
	}

	db := config.GetDB()
	return db.Transaction(func(tx *gorm.DB) error {
		return models.DepositAsset(tx.WithContext(ctx), assetId, wallet, amount)
	})
}

func walletFromContext(ctx context.Context) (string, error) {
	wallet, ok := utils.GetWalletFromContext(ctx)
	if !ok || wallet == "" {
		return "", utils.ErrUnauthorized
	}
	return wallet, nil
}

func isCallerFailure(err error) bool {
	for _, sentinel := range []error{
		utils.ErrUnauthorized, utils.ErrNotAuthorizedParty, utils.ErrNotDisputeResolver,
		utils.ErrEscrowNotFound, utils.ErrEscrowNotActive, utils.ErrCannotDispute, utils.ErrNoActiveDispute,
		utils.ErrInsufficientFunds, utils.ErrInsufficientHours, utils.ErrHoursOverflow, utils.ErrInvalidHours,
		utils.ErrInvalidAmount,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// Redis lock is a best-effort optimization to shed contention before opening
// a DB transaction. Reliability must not depend on Redis: settlement is also
// serialized via MySQL advisory locks inside the transaction.
func obtainBestEffortLock(ctx context.Context, logger *logrus.Logger, employee string) *redislock.Lock {
	redisLock := config.GetRedisLock()
	if redisLock == nil {
		return nil
	}
	lock, err := redisLock.Obtain(ctx, fmt.Sprintf("lock:settlement:%s", employee), 30*time.Second, nil)
	if err != nil {
		if err != redislock.ErrNotObtained {
			logger.WithFields(logrus.Fields{
				"field":    "settlementLock",
				"employee": employee,
			}).Warn("error obtaining redis lock; proceeding without redis lock: " + err.Error())
		}
		return nil
	}
	return lock
}

func releaseBestEffortLock(ctx context.Context, logger *logrus.Logger, lock *redislock.Lock) {
	if lock == nil {
		return
	}
	if err := lock.Release(ctx); err != nil {
		logger.WithFields(logrus.Fields{
			"field": "settlementLock",
		}).Warn("failed to release redis lock: " + err.Error())
	}
}
