// seed-admin creates or updates the registrar's console user and the
// registrar config row, and optionally funds an asset account so a fresh
// environment can exercise escrow settlement end to end.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//   REGISTRAR_WALLET=... VAULT_ACCOUNT=... go run ./cmd/seed-admin
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/wagelink/workpay_backend/config"
	"github.com/wagelink/workpay_backend/models"
	"github.com/wagelink/workpay_backend/utils"
	"gorm.io/gorm"
)

const (
	adminEmail    = "admin@workpay.local"
	adminPassword = "W0rkp@yAdmin"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	models.MigrateTable()

	registrar := os.Getenv("REGISTRAR_WALLET")
	vault := os.Getenv("VAULT_ACCOUNT")
	if registrar == "" || vault == "" {
		fmt.Fprintln(os.Stderr, "REGISTRAR_WALLET and VAULT_ACCOUNT are required")
		os.Exit(2)
	}
	if err := models.SeedRegistrarConfig(registrar, vault); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed registrar config: %v\n", err)
		os.Exit(1)
	}

	hashed, err := utils.HashPassword(adminPassword)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}
	hashedStr := string(hashed)

	var existing models.User
	err = db.WithContext(ctx).Model(&models.User{}).Where("email = ?", adminEmail).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
			os.Exit(1)
		}
		u := models.User{
			Email:    adminEmail,
			Password: hashedStr,
			Role:     models.UserRoleAdmin,
			Wallet:   registrar,
		}
		if err := db.WithContext(ctx).Create(&u).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created admin user: email=%q wallet=%q\n", adminEmail, registrar)
	} else {
		if err := db.WithContext(ctx).Model(&models.User{}).Where("email = ?", adminEmail).Updates(map[string]any{
			"password": hashedStr,
			"role":     models.UserRoleAdmin,
			"wallet":   registrar,
		}).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to update admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated admin user: email=%q wallet=%q\n", adminEmail, registrar)
	}

	// Optional: pre-fund an account for local testing.
	if wallet := os.Getenv("SEED_FUND_WALLET"); wallet != "" {
		assetId := os.Getenv("SEED_FUND_ASSET")
		if assetId == "" {
			assetId = "USDC"
		}
		amount, err := decimal.NewFromString(os.Getenv("SEED_FUND_AMOUNT"))
		if err != nil || !amount.IsPositive() {
			fmt.Fprintln(os.Stderr, "SEED_FUND_AMOUNT must be a positive integer")
			os.Exit(2)
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			return models.DepositAsset(tx.WithContext(ctx), assetId, wallet, amount.Truncate(0))
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to fund wallet: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Funded wallet=%q asset=%q amount=%s\n", wallet, assetId, amount.Truncate(0))
	}
}
