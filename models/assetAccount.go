package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wagelink/workpay_backend/utils"
	"gorm.io/gorm"
)

// AssetAccount is one balance row of the local fungible-asset ledger, keyed
// by (asset, wallet). The escrow vault, employers, employees and the fee
// wallet are all plain accounts here.
type AssetAccount struct {
	ID        int             `gorm:"primary_key" json:"id"`
	AssetId   string          `gorm:"size:64;not null;uniqueIndex:idx_asset_wallet,priority:1" json:"asset_id"`
	Wallet    string          `gorm:"size:64;not null;uniqueIndex:idx_asset_wallet,priority:2" json:"wallet"`
	Balance   decimal.Decimal `gorm:"type:decimal(39,0);not null" json:"balance"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// BalanceOf returns the current balance; an absent account reads as zero.
func BalanceOf(tx *gorm.DB, assetId string, wallet string) (decimal.Decimal, error) {
	var acc AssetAccount
	err := tx.Where("asset_id = ? AND wallet = ?", assetId, wallet).Take(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return acc.Balance, nil
}

// TransferAsset moves amount between two accounts inside the caller's
// transaction. The debit row is locked first so concurrent transfers from
// the same account serialize. Insufficient balance aborts the caller's whole
// operation; it is never silently ignored.
func TransferAsset(tx *gorm.DB, assetId string, from string, to string, amount decimal.Decimal) error {

	if amount.IsNegative() || !amount.Equal(amount.Truncate(0)) {
		return utils.ErrInvalidAmount
	}
	if amount.IsZero() {
		return nil
	}

	var src AssetAccount
	err := tx.Clauses(lockForUpdate()).Where("asset_id = ? AND wallet = ?", assetId, from).Take(&src).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.ErrInsufficientFunds
	}
	if err != nil {
		return err
	}
	if src.Balance.LessThan(amount) {
		return utils.ErrInsufficientFunds
	}
	if err := tx.Model(&AssetAccount{}).Where("id = ?", src.ID).
		Update("balance", gorm.Expr("balance - ?", amount)).Error; err != nil {
		return err
	}
	return DepositAsset(tx, assetId, to, amount)
}

// DepositAsset credits an account, creating the row on first use. Used by
// TransferAsset for the credit leg and by the registrar on-ramp, where funds
// enter the local ledger from outside.
func DepositAsset(tx *gorm.DB, assetId string, wallet string, amount decimal.Decimal) error {

	if amount.IsNegative() || !amount.Equal(amount.Truncate(0)) {
		return utils.ErrInvalidAmount
	}
	if amount.IsZero() {
		return nil
	}

	var dst AssetAccount
	err := tx.Clauses(lockForUpdate()).Where("asset_id = ? AND wallet = ?", assetId, wallet).Take(&dst).Error
	switch {
	case err == nil:
		return tx.Model(&AssetAccount{}).Where("id = ?", dst.ID).
			Update("balance", gorm.Expr("balance + ?", amount)).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		dst = AssetAccount{AssetId: assetId, Wallet: wallet, Balance: amount}
		if err := tx.Create(&dst).Error; err != nil {
			if IsDuplicateKey(err) {
				return tx.Model(&AssetAccount{}).
					Where("asset_id = ? AND wallet = ?", assetId, wallet).
					Update("balance", gorm.Expr("balance + ?", amount)).Error
			}
			return err
		}
		return nil
	default:
		return err
	}
}
