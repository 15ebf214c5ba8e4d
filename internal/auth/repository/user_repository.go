package repository

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	authdomain "ireporter-backend/internal/auth/domain"
	"ireporter-backend/pkg/database"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Columns that may be probed for uniqueness.
var uniqueFields = map[string]struct{}{
	"username": {},
	"email":    {},
}

// userRepository implements UserRepository interface
type userRepository struct {
	db         *gorm.DB
	bcryptCost int
}

// NewUserRepository creates a new instance of userRepository
func NewUserRepository(db *gorm.DB, bcryptCost int) UserRepository {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &userRepository{
		db:         db,
		bcryptCost: bcryptCost,
	}
}

func (r *userRepository) Create(user *authdomain.User, password string) error {
	hash, err := HashPasswordWithCost(password, r.bcryptCost)
	if err != nil {
		return oops.Code("USER_HASH_FAILED").With("username", user.Username).Wrap(err)
	}

	user.ID = uuid.New().String()
	user.PasswordHash = hash
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	if user.Email != nil && *user.Email == "" {
		user.Email = nil
	}

	if err := r.db.Create(user).Error; err != nil {
		if detail, ok := database.UniqueViolation(err); ok {
			if strings.Contains(strings.ToLower(detail), "email") {
				return fmt.Errorf("create user %q: %w", user.Username, authdomain.ErrDuplicateEmail)
			}
			return fmt.Errorf("create user %q: %w", user.Username, authdomain.ErrDuplicateUsername)
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("username", user.Username).
			Wrap(err)
	}
	return nil
}

func (r *userRepository) FindByUsername(username string) (*authdomain.User, error) {
	var user authdomain.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, oops.Code("USER_GET_BY_USERNAME_FAILED").With("username", username).Wrap(err)
	}
	return &user, nil
}

func (r *userRepository) FindByID(id string) (*authdomain.User, error) {
	var user authdomain.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, oops.Code("USER_GET_BY_ID_FAILED").With("id", id).Wrap(err)
	}
	return &user, nil
}

func (r *userRepository) UpdatePassword(id, password string) error {
	hash, err := HashPasswordWithCost(password, r.bcryptCost)
	if err != nil {
		return oops.Code("USER_HASH_FAILED").With("id", id).Wrap(err)
	}

	result := r.db.Model(&authdomain.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_hash": hash,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return oops.Code("USER_UPDATE_PASSWORD_FAILED").With("id", id).Wrap(result.Error)
	}
	if result.RowsAffected == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", id).Wrap(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *userRepository) ExistsByField(field, value string) (bool, error) {
	if _, ok := uniqueFields[field]; !ok {
		return false, oops.Code("USER_FIELD_NOT_ALLOWED").Errorf("cannot filter users by %q", field)
	}

	var count int64
	err := r.db.Model(&authdomain.User{}).Where(field+" = ?", value).Count(&count).Error
	if err != nil {
		return false, oops.Code("USER_EXISTS_FAILED").With("field", field).Wrap(err)
	}
	return count > 0, nil
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, bcrypt.DefaultCost)
}

func HashPasswordWithCost(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword(prehash(password), cost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash in constant time
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), prehash(password))
	return err == nil
}

// prehash maps any password to 44 bytes so bcrypt's 72-byte input limit
// never truncates or rejects it.
func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}
