package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wagelink/workpay_backend/config"
	"github.com/wagelink/workpay_backend/models"
)

// SettlementSummaryResponse is one row per escrow state: how many records
// are in that state and the amounts they hold.
type SettlementSummaryResponse struct {
	State       models.EscrowState `json:"state"`
	Count       int64              `json:"count"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
}

type VaultBalanceResponse struct {
	AssetId string          `json:"asset_id"`
	Balance decimal.Decimal `json:"balance"`
}

// GetSettlementSummaryReport groups escrow records by state.
func GetSettlementSummaryReport(ctx context.Context) ([]*SettlementSummaryResponse, error) {

	started := time.Now()
	defer logSlowReport(ctx, "settlement_summary", started, nil)

	cacheKey := "Report:SettlementSummary"
	if reportCacheEnabled() {
		var cached []*SettlementSummaryResponse
		if ok, err := cacheGet(cacheKey, &cached); err == nil && ok {
			return cached, nil
		}
	}

	db := config.GetDB()
	var results []*SettlementSummaryResponse
	err := db.WithContext(ctx).Raw(`
		SELECT state, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total_amount
		FROM escrow_records
		GROUP BY state
		ORDER BY state ASC
	`).Scan(&results).Error
	if err != nil {
		return nil, err
	}

	if reportCacheEnabled() {
		_ = cacheSet(cacheKey, results, reportCacheTTL())
	}
	return results, nil
}

// GetVaultBalancesReport returns the vault account's balance per asset, the
// amount currently backing claims.
func GetVaultBalancesReport(ctx context.Context) ([]*VaultBalanceResponse, error) {

	started := time.Now()
	defer logSlowReport(ctx, "vault_balances", started, nil)

	cfg, err := models.GetRegistrarConfig(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var results []*VaultBalanceResponse
	err = db.WithContext(ctx).Raw(`
		SELECT asset_id, balance
		FROM asset_accounts
		WHERE wallet = ?
		ORDER BY asset_id ASC
	`, cfg.VaultAccount).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
