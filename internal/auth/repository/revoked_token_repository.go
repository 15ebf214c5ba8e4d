package repository

import (
	"time"

	authdomain "ireporter-backend/internal/auth/domain"

	"github.com/samber/oops"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// revokedTokenRepository implements RevokedTokenRepository interface
type revokedTokenRepository struct {
	db *gorm.DB
}

// NewRevokedTokenRepository creates a new instance of revokedTokenRepository
func NewRevokedTokenRepository(db *gorm.DB) RevokedTokenRepository {
	return &revokedTokenRepository{
		db: db,
	}
}

// Revoke adds a token to the denylist. Revoking twice is a no-op.
func (r *revokedTokenRepository) Revoke(token *authdomain.RevokedToken) error {
	if token.RevokedAt.IsZero() {
		token.RevokedAt = time.Now()
	}

	// INSERT ... ON CONFLICT (jti) DO NOTHING
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "jti"}},
		DoNothing: true,
	}).Create(token).Error
	if err != nil {
		return oops.Code("TOKEN_REVOKE_FAILED").With("jti", token.JTI).Wrap(err)
	}
	return nil
}

func (r *revokedTokenRepository) IsRevoked(jti string) (bool, error) {
	var count int64
	err := r.db.Model(&authdomain.RevokedToken{}).Where("jti = ?", jti).Count(&count).Error
	if err != nil {
		return false, oops.Code("TOKEN_LOOKUP_FAILED").With("jti", jti).Wrap(err)
	}
	return count > 0, nil
}

func (r *revokedTokenRepository) PurgeExpired(now time.Time) (int64, error) {
	result := r.db.Where("expires_at < ?", now).Delete(&authdomain.RevokedToken{})
	if result.Error != nil {
		return 0, oops.Code("TOKEN_PURGE_FAILED").Wrap(result.Error)
	}
	return result.RowsAffected, nil
}
