package models

import (
	"context"
	"errors"
	"testing"

	"github.com/wagelink/workpay_backend/utils"
)

// NOTE: These tests are intentionally DB-free. They validate the account
// uniqueness decision and the admin provisioning guard; the uniqueness
// lookups themselves are backed by the email and idx_user_wallet_role
// indexes.

func TestEnsureAccountAvailable(t *testing.T) {
	cases := []struct {
		name            string
		emailCount      int64
		walletRoleCount int64
		want            error
	}{
		{"fresh email and wallet+role", 0, 0, nil},
		{"email already registered", 1, 0, ErrDuplicateEmail},
		{"wallet already holds this role", 0, 1, ErrWalletRoleTaken},
		{"email conflict reported before wallet conflict", 1, 1, ErrDuplicateEmail},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := ensureAccountAvailable(c.emailCount, c.walletRoleCount)
			if !errors.Is(err, c.want) {
				t.Fatalf("ensureAccountAvailable(%d, %d) = %v, want %v",
					c.emailCount, c.walletRoleCount, err, c.want)
			}
		})
	}
}

func TestRegisterUser_AdminRoleRequiresAdminCaller(t *testing.T) {
	input := &NewUser{
		Email:    "second-admin@workpay.local",
		Password: "pw",
		Role:     UserRoleAdmin,
		Wallet:   "wallet-admin-2",
	}

	// Unauthenticated caller.
	if _, err := RegisterUser(context.Background(), input); !errors.Is(err, utils.ErrUnauthorized) {
		t.Fatalf("anonymous admin registration: got %v, want ErrUnauthorized", err)
	}

	// Authenticated, but not an admin.
	ctx := utils.SetRoleInContext(context.Background(), string(UserRoleEmployer))
	if _, err := RegisterUser(ctx, input); !errors.Is(err, utils.ErrUnauthorized) {
		t.Fatalf("employer creating an admin: got %v, want ErrUnauthorized", err)
	}
}
