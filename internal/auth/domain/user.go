package domain

import "time"

// CreatedOnLayout renders timestamps as "Tue, 05 Mar 2024 14:07 PM".
const CreatedOnLayout = "Mon, 02 Jan 2006 15:04 PM"

type User struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"` // Never return password in JSON
	Email        *string   `json:"email" gorm:"uniqueIndex"`
	Phone        string    `json:"phone"`
	FirstName    string    `json:"firstname"`
	LastName     string    `json:"lastname"`
	OtherNames   string    `json:"othernames"`
	IsAdmin      bool      `json:"isadmin" gorm:"default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RevokedToken is a denylist entry. Tokens are identified by their jti claim.
type RevokedToken struct {
	JTI       string    `json:"jti" gorm:"primaryKey"`
	TokenType string    `json:"token_type" gorm:"not null"`
	Username  string    `json:"username" gorm:"index"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index;not null"`
	RevokedAt time.Time `json:"revoked_at"`
}
