package utils

import (
	"context"

	"github.com/wagelink/workpay_backend/appctx"
)

var (
	ContextKeyWallet        = appctx.ContextKeyWallet
	ContextKeyRole          = appctx.ContextKeyRole
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
)

// GetWalletFromContext returns the authenticated principal of the request.
// An operation that needs a principal and finds none fails with ErrUnauthorized.
func GetWalletFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyWallet)
}

func GetRoleFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyRole)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetWalletInContext(ctx context.Context, wallet string) context.Context {
	return appctx.Set(ctx, ContextKeyWallet, wallet)
}

func SetRoleInContext(ctx context.Context, role string) context.Context {
	return appctx.Set(ctx, ContextKeyRole, role)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}
