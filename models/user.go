package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/wagelink/workpay_backend/config"
	"github.com/wagelink/workpay_backend/utils"
	"golang.org/x/crypto/bcrypt"
)

type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleEmployee UserRole = "employee"
	UserRoleEmployer UserRole = "employer"
)

var (
	ErrDuplicateEmail  = errors.New("duplicate email")
	ErrWalletRoleTaken = errors.New("wallet already has an account for this role")
)

// User is an API account. Wallet is the principal every ledger operation
// authorizes against; the JWT issued at login carries it. A wallet may hold
// at most one account per role, enforced by idx_user_wallet_role.
type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Email     string    `gorm:"size:100;not null;unique" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      UserRole  `gorm:"size:20;not null;default:'employee';uniqueIndex:idx_user_wallet_role,priority:2" json:"role"`
	Wallet    string    `gorm:"size:64;not null;uniqueIndex:idx_user_wallet_role,priority:1" json:"wallet"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Email    string   `json:"email" binding:"required"`
	Password string   `json:"password" binding:"required"`
	Role     UserRole `json:"role" binding:"required"`
	Wallet   string   `json:"wallet" binding:"required"`
}

type LoginInfo struct {
	Token  string   `json:"token"`
	Role   UserRole `json:"role"`
	Wallet string   `json:"wallet"`
}

func (role UserRole) isValid() bool {
	switch role {
	case UserRoleAdmin, UserRoleEmployee, UserRoleEmployer:
		return true
	}
	return false
}

// ensureAccountAvailable turns the two uniqueness lookups into the account
// failure: email is globally unique, and a wallet holds at most one account
// per role.
func ensureAccountAvailable(emailCount int64, walletRoleCount int64) error {
	if emailCount > 0 {
		return ErrDuplicateEmail
	}
	if walletRoleCount > 0 {
		return ErrWalletRoleTaken
	}
	return nil
}

func RegisterUser(ctx context.Context, input *NewUser) (*User, error) {

	if !input.Role.isValid() {
		return nil, errors.New("invalid role")
	}
	// Admin accounts are provisioned by an existing admin, never self-service.
	if input.Role == UserRoleAdmin {
		callerRole, _ := utils.GetRoleFromContext(ctx)
		if callerRole != string(UserRoleAdmin) {
			return nil, utils.ErrUnauthorized
		}
	}

	db := config.GetDB()
	email := strings.ToLower(strings.TrimSpace(input.Email))
	var emailCount int64
	if err := db.WithContext(ctx).Model(&User{}).Where("email = ?", email).Count(&emailCount).Error; err != nil {
		return nil, err
	}
	var walletRoleCount int64
	if err := db.WithContext(ctx).Model(&User{}).
		Where("wallet = ? AND role = ?", input.Wallet, input.Role).Count(&walletRoleCount).Error; err != nil {
		return nil, err
	}
	if err := ensureAccountAvailable(emailCount, walletRoleCount); err != nil {
		return nil, err
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		Email:    email,
		Password: string(hashedPassword),
		Role:     input.Role,
		Wallet:   input.Wallet,
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		// Concurrent registration races surface through the unique indexes;
		// the 1062 message names the violated index.
		if IsDuplicateKey(err) {
			if strings.Contains(err.Error(), "idx_user_wallet_role") {
				return nil, ErrWalletRoleTaken
			}
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	user.Password = ""
	return &user, nil
}

func LoginUser(ctx context.Context, email string, password string) (*LoginInfo, error) {

	db := config.GetDB()
	var user User

	err := db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).Take(&user).Error
	if err != nil {
		return nil, errors.New("invalid email or password")
	}

	if err := utils.ComparePassword(user.Password, password); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, errors.New("invalid email or password")
		}
		return nil, err
	}

	token, err := utils.JwtGenerate(user.Wallet, string(user.Role))
	if err != nil {
		return nil, err
	}

	return &LoginInfo{Token: token, Role: user.Role, Wallet: user.Wallet}, nil
}
