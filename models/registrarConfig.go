package models

import (
	"context"
	"errors"
	"time"

	"github.com/wagelink/workpay_backend/config"
	"github.com/wagelink/workpay_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RegistrarConfig is the single bootstrap row naming the registrar wallet
// that gates employee registration and the vault account that holds escrowed
// funds. Written once at startup, read on every gated operation.
type RegistrarConfig struct {
	ID           int       `gorm:"primary_key" json:"id"`
	Registrar    string    `gorm:"size:64;not null" json:"registrar"`
	VaultAccount string    `gorm:"size:64;not null" json:"vault_account"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

/*
caches:
	RegistrarConfig
*/

func GetRegistrarConfig(ctx context.Context) (*RegistrarConfig, error) {

	var result RegistrarConfig
	exists, err := config.GetRedisObject("RegistrarConfig", &result)
	if err != nil {
		return nil, err
	}
	if exists {
		return &result, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Order("id ASC").Take(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("registrar config is not seeded")
		}
		return nil, err
	}

	if err := config.SetRedisObject("RegistrarConfig", &result, time.Hour); err != nil {
		return nil, err
	}
	return &result, nil
}

// SeedRegistrarConfig upserts the bootstrap row. Safe to call on every start.
func SeedRegistrarConfig(registrar string, vaultAccount string) error {
	if registrar == "" || vaultAccount == "" {
		return errors.New("registrar and vault account are required")
	}

	db := config.GetDB()
	row := RegistrarConfig{ID: 1, Registrar: registrar, VaultAccount: vaultAccount}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"registrar", "vault_account"}),
	}).Create(&row).Error; err != nil {
		return err
	}
	return config.RemoveRedisKey("RegistrarConfig")
}

func requireRegistrar(ctx context.Context) (*RegistrarConfig, error) {
	caller, err := walletFromContext(ctx)
	if err != nil {
		return nil, err
	}
	cfg, err := GetRegistrarConfig(ctx)
	if err != nil {
		return nil, err
	}
	if caller != cfg.Registrar {
		return nil, utils.ErrUnauthorized
	}
	return cfg, nil
}
