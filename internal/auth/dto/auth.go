package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	authdomain "ireporter-backend/internal/auth/domain"
)

// Credentials only checks that both keys are present. Empty strings count as
// present and are judged by the credential rules instead.
type Credentials struct {
	Username *string `json:"username" binding:"required"`
	Password *string `json:"password" binding:"required"`
}

type SignUpRequest struct {
	Username   string    `json:"username"`
	Password   string    `json:"password"`
	Email      *string   `json:"email"`
	Phone      string    `json:"phone"`
	FirstName  string    `json:"firstname"`
	LastName   string    `json:"lastname"`
	OtherNames string    `json:"othernames"`
	IsAdmin    LooseBool `json:"isadmin"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LooseBool accepts a JSON boolean or a string strconv.ParseBool understands.
// null and "" decode to false.
type LooseBool bool

// InvalidBoolError reports a value LooseBool could not decode.
type InvalidBoolError struct {
	Value string
}

func (e *InvalidBoolError) Error() string {
	return fmt.Sprintf("invalid boolean %s", e.Value)
}

func (b *LooseBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null":
		return nil
	case "true":
		*b = true
		return nil
	case "false":
		*b = false
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return &InvalidBoolError{Value: string(data)}
	}
	if raw == "" {
		*b = false
		return nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return &InvalidBoolError{Value: strconv.Quote(raw)}
	}
	*b = LooseBool(parsed)
	return nil
}

// UserResponse is the sanitized user representation; the password hash never leaves the server.
type UserResponse struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	Email      *string `json:"email"`
	Phone      string  `json:"phone"`
	FirstName  string  `json:"firstname"`
	LastName   string  `json:"lastname"`
	OtherNames string  `json:"othernames"`
	IsAdmin    bool    `json:"isadmin"`
	CreatedOn  string  `json:"createdon"`
}

func NewUserResponse(user *authdomain.User) *UserResponse {
	return &UserResponse{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		Phone:      user.Phone,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		OtherNames: user.OtherNames,
		IsAdmin:    user.IsAdmin,
		CreatedOn:  FormatCreatedOn(user.CreatedAt),
	}
}

func FormatCreatedOn(t time.Time) string {
	return t.Format(authdomain.CreatedOnLayout)
}

type TokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token,omitempty"`
	User         *UserResponse `json:"user,omitempty"`
}

// Envelope is the success body: {"status": 200, "data": [...]}.
type Envelope struct {
	Status  int    `json:"status"`
	Data    []any  `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the failure body: {"status": 400, "error": "..."}.
type ErrorResponse struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}
