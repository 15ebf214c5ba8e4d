package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	authdomain "ireporter-backend/internal/auth/domain"
	authdto "ireporter-backend/internal/auth/dto"
	"ireporter-backend/internal/auth/repository"
	"ireporter-backend/internal/auth/token"
	"ireporter-backend/internal/auth/validator"

	"golang.org/x/crypto/bcrypt"
)

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	store      repository.Store
	tokens     TokenIssuer
	bcryptCost int
	logger     *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthUsecase creates a new instance of authUsecase
// bcryptCost must match the store's so unknown users cost as much as wrong passwords.
func NewAuthUsecase(store repository.Store, tokens TokenIssuer, bcryptCost int, logger *slog.Logger) AuthUsecase {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &authUsecase{
		store:      store,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (u *authUsecase) SignUp(ctx context.Context, req *authdto.SignUpRequest) (*authdto.TokenResponse, error) {
	username, ok := validator.ValidUsername(req.Username)
	if !ok {
		return nil, authdomain.ValidationError(authdomain.MsgInvalidUsername)
	}

	var email *string
	if req.Email != nil && *req.Email != "" {
		email = req.Email
	}

	var user *authdomain.User
	err := u.store.Session(ctx, func(repos repository.Repositories) error {
		taken, err := repos.Users.ExistsByField("username", username)
		if err != nil {
			return err
		}
		if taken {
			return authdomain.ConflictError(authdomain.MsgUsernameTaken, authdomain.ErrDuplicateUsername)
		}

		if email != nil {
			if !validator.ValidEmail(*email) {
				return authdomain.ValidationError(authdomain.MsgInvalidEmail)
			}
			taken, err := repos.Users.ExistsByField("email", *email)
			if err != nil {
				return err
			}
			if taken {
				return authdomain.ConflictError(authdomain.MsgEmailTaken, authdomain.ErrDuplicateEmail)
			}
		}

		if !validator.ValidPassword(req.Password) {
			return authdomain.ValidationError(authdomain.MsgInvalidPassword)
		}

		candidate := &authdomain.User{
			Username:   username,
			Email:      email,
			Phone:      req.Phone,
			FirstName:  req.FirstName,
			LastName:   req.LastName,
			OtherNames: req.OtherNames,
			IsAdmin:    bool(req.IsAdmin),
		}
		if err := repos.Users.Create(candidate, req.Password); err != nil {
			// the unique indexes catch sign-ups racing past the checks above
			switch {
			case errors.Is(err, authdomain.ErrDuplicateUsername):
				return authdomain.ConflictError(authdomain.MsgUsernameTaken, err)
			case errors.Is(err, authdomain.ErrDuplicateEmail):
				return authdomain.ConflictError(authdomain.MsgEmailTaken, err)
			}
			return err
		}
		user = candidate
		return nil
	})
	if err != nil {
		return nil, u.classify(ctx, "signup", err)
	}

	resp, err := u.issuePair(user.Username)
	if err != nil {
		return nil, u.classify(ctx, "signup", err)
	}
	resp.User = authdto.NewUserResponse(user)

	u.logger.InfoContext(ctx, "user registered", "username", user.Username, "user_id", user.ID)
	return resp, nil
}

func (u *authUsecase) Login(ctx context.Context, req *authdto.LoginRequest) (*authdto.TokenResponse, error) {
	var user *authdomain.User
	err := u.store.Session(ctx, func(repos repository.Repositories) error {
		found, err := repos.Users.FindByUsername(req.Username)
		if err != nil {
			return err
		}
		if found == nil {
			// burn the same bcrypt work as a real check
			repository.CheckPasswordHash(req.Password, u.getDummyHash())
			return authdomain.AuthenticationError(authdomain.MsgInvalidCredentials, nil)
		}
		if !repository.CheckPasswordHash(req.Password, found.PasswordHash) {
			return authdomain.AuthenticationError(authdomain.MsgInvalidCredentials, nil)
		}
		user = found
		return nil
	})
	if err != nil {
		if authdomain.KindOf(err) == authdomain.KindAuthentication {
			u.logger.WarnContext(ctx, "login rejected", "username", req.Username)
		}
		return nil, u.classify(ctx, "login", err)
	}

	resp, err := u.issuePair(user.Username)
	if err != nil {
		return nil, u.classify(ctx, "login", err)
	}
	resp.User = authdto.NewUserResponse(user)

	u.logger.InfoContext(ctx, "user logged in", "username", user.Username)
	return resp, nil
}

func (u *authUsecase) RefreshToken(ctx context.Context, claims *token.Claims) (*authdto.TokenResponse, error) {
	err := u.store.Session(ctx, func(repos repository.Repositories) error {
		return ensureNotRevoked(repos, claims)
	})
	if err != nil {
		return nil, u.classify(ctx, "refresh", err)
	}

	accessToken, err := u.tokens.IssueAccessToken(claims.Identity(), false)
	if err != nil {
		return nil, u.classify(ctx, "refresh", err)
	}
	return &authdto.TokenResponse{AccessToken: accessToken}, nil
}

func (u *authUsecase) VerifyRefreshToken(ctx context.Context, raw string) (*token.Claims, error) {
	claims, err := u.tokens.VerifyRefreshToken(raw)
	if err != nil {
		return nil, authdomain.AuthenticationError(authdomain.MsgInvalidToken, err)
	}
	return claims, nil
}

func (u *authUsecase) VerifyAccessToken(ctx context.Context, raw string) (*token.Claims, error) {
	claims, err := u.tokens.VerifyAccessToken(raw)
	if err != nil {
		return nil, authdomain.AuthenticationError(authdomain.MsgInvalidToken, err)
	}
	return claims, nil
}

func (u *authUsecase) Me(ctx context.Context, claims *token.Claims) (*authdto.UserResponse, error) {
	var user *authdomain.User
	err := u.store.Session(ctx, func(repos repository.Repositories) error {
		if err := ensureNotRevoked(repos, claims); err != nil {
			return err
		}
		found, err := repos.Users.FindByUsername(claims.Identity())
		if err != nil {
			return err
		}
		if found == nil {
			return authdomain.AuthenticationError(authdomain.MsgInvalidToken, nil)
		}
		user = found
		return nil
	})
	if err != nil {
		return nil, u.classify(ctx, "me", err)
	}
	return authdto.NewUserResponse(user), nil
}

func (u *authUsecase) ChangePassword(ctx context.Context, claims *token.Claims, password string) error {
	if !validator.ValidPassword(password) {
		return authdomain.ValidationError(authdomain.MsgInvalidPassword)
	}

	err := u.store.Session(ctx, func(repos repository.Repositories) error {
		if err := ensureNotRevoked(repos, claims); err != nil {
			return err
		}
		user, err := repos.Users.FindByUsername(claims.Identity())
		if err != nil {
			return err
		}
		if user == nil {
			return authdomain.AuthenticationError(authdomain.MsgInvalidToken, nil)
		}
		return repos.Users.UpdatePassword(user.ID, password)
	})
	if err != nil {
		return u.classify(ctx, "change_password", err)
	}

	u.logger.InfoContext(ctx, "password changed", "username", claims.Identity())
	return nil
}

func (u *authUsecase) Logout(ctx context.Context, claims *token.Claims, refreshToken string) error {
	entries := []*authdomain.RevokedToken{revokedEntry(claims)}
	if refreshToken != "" {
		rc, err := u.tokens.VerifyRefreshToken(refreshToken)
		if err == nil && rc.Identity() == claims.Identity() {
			entries = append(entries, revokedEntry(rc))
		}
	}

	err := u.store.Session(ctx, func(repos repository.Repositories) error {
		if err := ensureNotRevoked(repos, claims); err != nil {
			return err
		}
		for _, entry := range entries {
			if err := repos.RevokedTokens.Revoke(entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return u.classify(ctx, "logout", err)
	}

	u.logger.InfoContext(ctx, "user logged out", "username", claims.Identity(), "revoked", len(entries))
	return nil
}

// ensureNotRevoked runs on the caller's session so a request holds one connection.
func ensureNotRevoked(repos repository.Repositories, claims *token.Claims) error {
	revoked, err := repos.RevokedTokens.IsRevoked(claims.ID)
	if err != nil {
		return err
	}
	if revoked {
		return authdomain.AuthenticationError(authdomain.MsgInvalidToken, nil)
	}
	return nil
}

func (u *authUsecase) issuePair(identity string) (*authdto.TokenResponse, error) {
	accessToken, err := u.tokens.IssueAccessToken(identity, true)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refreshToken, err := u.tokens.IssueRefreshToken(identity)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &authdto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// classify passes domain errors through and hides everything else behind an internal error.
func (u *authUsecase) classify(ctx context.Context, op string, err error) error {
	var domainErr *authdomain.Error
	if errors.As(err, &domainErr) {
		return domainErr
	}
	u.logger.ErrorContext(ctx, "auth operation failed", "operation", op, "error", err)
	return authdomain.InternalError(err)
}

func (u *authUsecase) getDummyHash() string {
	u.dummyOnce.Do(func() {
		u.dummyHash, _ = repository.HashPasswordWithCost("not-a-real-password", u.bcryptCost)
	})
	return u.dummyHash
}

func revokedEntry(claims *token.Claims) *authdomain.RevokedToken {
	return &authdomain.RevokedToken{
		JTI:       claims.ID,
		TokenType: string(claims.Type),
		Username:  claims.Identity(),
		ExpiresAt: claims.ExpiresAtTime(),
		RevokedAt: time.Now(),
	}
}
