package repository

import (
	"context"

	"ireporter-backend/pkg/database"

	"gorm.io/gorm"
)

type gormStore struct {
	db         *gorm.DB
	bcryptCost int
}

// NewStore creates a Store over the connection pool db
func NewStore(db *gorm.DB, bcryptCost int) Store {
	return &gormStore{
		db:         db,
		bcryptCost: bcryptCost,
	}
}

func (s *gormStore) Session(ctx context.Context, fn func(repos Repositories) error) error {
	return database.WithConn(ctx, s.db, func(conn *gorm.DB) error {
		return fn(Repositories{
			Users:         NewUserRepository(conn, s.bcryptCost),
			RevokedTokens: NewRevokedTokenRepository(conn),
		})
	})
}
