package usecase

import (
	"context"

	authdto "ireporter-backend/internal/auth/dto"
	"ireporter-backend/internal/auth/token"
)

// AuthUsecase defines the identity flows exposed over HTTP
type AuthUsecase interface {
	// SignUp validates the request, creates the user and returns a fresh token pair
	SignUp(ctx context.Context, req *authdto.SignUpRequest) (*authdto.TokenResponse, error)

	// Login checks credentials and returns a fresh token pair
	Login(ctx context.Context, req *authdto.LoginRequest) (*authdto.TokenResponse, error)

	// RefreshToken mints a non-fresh access token for a verified, non-revoked refresh token
	RefreshToken(ctx context.Context, claims *token.Claims) (*authdto.TokenResponse, error)

	// VerifyRefreshToken checks signature, expiry and type. The denylist is
	// consulted by the operation that consumes the claims.
	VerifyRefreshToken(ctx context.Context, raw string) (*token.Claims, error)

	// VerifyAccessToken checks signature, expiry and type
	VerifyAccessToken(ctx context.Context, raw string) (*token.Claims, error)

	// Me returns the user an access token was issued to
	Me(ctx context.Context, claims *token.Claims) (*authdto.UserResponse, error)

	// ChangePassword validates and stores a new password for the token's user
	ChangePassword(ctx context.Context, claims *token.Claims, password string) error

	// Logout denylists the access token and, when given and valid, the caller's refresh token
	Logout(ctx context.Context, claims *token.Claims, refreshToken string) error
}

// TokenIssuer is satisfied by *token.Issuer
type TokenIssuer interface {
	IssueAccessToken(identity string, fresh bool) (string, error)
	IssueRefreshToken(identity string) (string, error)
	VerifyAccessToken(tokenString string) (*token.Claims, error)
	VerifyRefreshToken(tokenString string) (*token.Claims, error)
}
