package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
// Repos run against Tx when set and fall back to their own handle otherwise.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// New wraps a plain request context with no transaction.
func New(ctx context.Context) Context {
	return Context{Ctx: ctx}
}

// WithTx binds a transaction so every repo call made with the returned
// Context shares it.
func WithTx(ctx context.Context, tx *gorm.DB) Context {
	return Context{Ctx: ctx, Tx: tx}
}
