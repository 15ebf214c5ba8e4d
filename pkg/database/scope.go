package database

import (
	"context"

	"gorm.io/gorm"
)

// WithConn pins one pooled connection for the lifetime of fn. Every query issued
// through conn runs on that connection, and it goes back to the pool when fn
// returns, fails or panics.
func WithConn(ctx context.Context, db *gorm.DB, fn func(conn *gorm.DB) error) error {
	return db.WithContext(ctx).Connection(func(tx *gorm.DB) error {
		// NewDB so that conditions do not leak between statements on the same handle.
		return fn(tx.Session(&gorm.Session{NewDB: true}))
	})
}
