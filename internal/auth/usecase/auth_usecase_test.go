package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	authdomain "ireporter-backend/internal/auth/domain"
	authdto "ireporter-backend/internal/auth/dto"
	"ireporter-backend/internal/auth/repository"
	"ireporter-backend/internal/auth/token"
	"ireporter-backend/pkg/database"
	"ireporter-backend/pkg/logger"
)

type fixture struct {
	uc     AuthUsecase
	store  repository.Store
	issuer *token.Issuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "auth.db") + "?_busy_timeout=5000"
	db, err := database.NewSQLiteConnection(path, 4)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, db.AutoMigrate(&authdomain.User{}, &authdomain.RevokedToken{}))

	store := repository.NewStore(db, bcrypt.MinCost)
	issuer := token.NewIssuer("test-secret", 15*time.Minute, 24*time.Hour)
	return &fixture{
		uc:     NewAuthUsecase(store, issuer, bcrypt.MinCost, logger.Discard()),
		store:  store,
		issuer: issuer,
	}
}

func (f *fixture) userExists(t *testing.T, username string) bool {
	t.Helper()
	var exists bool
	err := f.store.Session(context.Background(), func(repos repository.Repositories) error {
		var err error
		exists, err = repos.Users.ExistsByField("username", username)
		return err
	})
	require.NoError(t, err)
	return exists
}

func strPtr(s string) *string { return &s }

func assertDomainError(t *testing.T, err error, kind authdomain.Kind, message string) {
	t.Helper()
	require.Error(t, err)
	var domainErr *authdomain.Error
	require.True(t, errors.As(err, &domainErr), "expected *domain.Error, got %T", err)
	assert.Equal(t, kind, domainErr.Kind)
	assert.Equal(t, message, domainErr.Message)
}

func TestSignUp_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.uc.SignUp(ctx, &authdto.SignUpRequest{
		Username:  "abc",
		Password:  "abcde",
		Email:     strPtr("abc@example.com"),
		FirstName: "Ada",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	require.NotNil(t, resp.User)
	assert.Equal(t, "abc", resp.User.Username)
	assert.Equal(t, "Ada", resp.User.FirstName)
	assert.NotEmpty(t, resp.User.CreatedOn)

	access, err := f.issuer.VerifyAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.True(t, access.Fresh)
	assert.Equal(t, "abc", access.Identity())

	refresh, err := f.issuer.VerifyRefreshToken(resp.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "abc", refresh.Identity())
}

func TestSignUp_InvalidUsernameNotPersisted(t *testing.T) {
	f := newFixture(t)

	for _, username := range []string{"", "ab", "1abc", "-abc", " a "} {
		t.Run(fmt.Sprintf("%q", username), func(t *testing.T) {
			_, err := f.uc.SignUp(context.Background(), &authdto.SignUpRequest{Username: username, Password: "abcde"})
			assertDomainError(t, err, authdomain.KindValidation, authdomain.MsgInvalidUsername)
			assert.False(t, f.userExists(t, username))
		})
	}
}

func TestSignUp_DuplicateUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.SignUp(ctx, &authdto.SignUpRequest{Username: "abc", Password: "abcde"})
	require.NoError(t, err)

	_, err = f.uc.SignUp(ctx, &authdto.SignUpRequest{Username: "abc", Password: "другой"})
	assertDomainError(t, err, authdomain.KindConflict, authdomain.MsgUsernameTaken)
}

func TestSignUp_ValidationOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.SignUp(ctx, &authdto.SignUpRequest{Username: "taken", Password: "abcde", Email: strPtr("taken@example.com")})
	require.NoError(t, err)

	tests := []struct {
		name    string
		req     authdto.SignUpRequest
		kind    authdomain.Kind
		message string
	}{
		{
			name:    "username format before everything",
			req:     authdto.SignUpRequest{Username: "1x", Password: "x", Email: strPtr("bad")},
			kind:    authdomain.KindValidation,
			message: authdomain.MsgInvalidUsername,
		},
		{
			name:    "username uniqueness before email",
			req:     authdto.SignUpRequest{Username: "taken", Password: "x", Email: strPtr("bad")},
			kind:    authdomain.KindConflict,
			message: authdomain.MsgUsernameTaken,
		},
		{
			name:    "email format before password",
			req:     authdto.SignUpRequest{Username: "fresh", Password: "x", Email: strPtr("bad")},
			kind:    authdomain.KindValidation,
			message: authdomain.MsgInvalidEmail,
		},
		{
			name:    "email uniqueness before password",
			req:     authdto.SignUpRequest{Username: "fresh", Password: "x", Email: strPtr("taken@example.com")},
			kind:    authdomain.KindConflict,
			message: authdomain.MsgEmailTaken,
		},
		{
			name:    "password last",
			req:     authdto.SignUpRequest{Username: "fresh", Password: "abcd"},
			kind:    authdomain.KindValidation,
			message: authdomain.MsgInvalidPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.uc.SignUp(ctx, &req)
			assertDomainError(t, err, tt.kind, tt.message)
			assert.False(t, f.userExists(t, "fresh"))
		})
	}
}

func TestSignUp_LongPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	long := strings.Repeat("p", 80)

	_, err := f.uc.SignUp(ctx, &authdto.SignUpRequest{Username: "abc", Password: long})
	require.NoError(t, err)

	_, err = f.uc.Login(ctx, &authdto.LoginRequest{Username: "abc", Password: long})
	require.NoError(t, err)

	_, err = f.uc.Login(ctx, &authdto.LoginRequest{Username: "abc", Password: long[:72]})
	assertDomainError(t, err, authdomain.KindAuthentication, authdomain.MsgInvalidCredentials)

	login, err := f.uc.Login(ctx, &authdto.LoginRequest{Username: "abc", Password: long})
	require.NoError(t, err)
	claims, err := f.uc.VerifyAccessToken(ctx, login.AccessToken)
	require.NoError(t, err)
	require.NoError(t, f.uc.ChangePassword(ctx, claims, strings.Repeat("q", 100)))
}

func TestLogin_DummyHashUsesStoreCost(t *testing.T) {
	store := &stubStore{}
	issuer := token.NewIssuer("test-secret", time.Minute, time.Hour)

	for _, cost := range []int{bcrypt.MinCost, bcrypt.MinCost + 1} {
		uc := NewAuthUsecase(store, issuer, cost, logger.Discard()).(*authUsecase)
		hashCost, err := bcrypt.Cost([]byte(uc.getDummyHash()))
		require.NoError(t, err)
		assert.Equal(t, cost, hashCost)
	}
}

// sessionCounter counts connection acquisitions.
type sessionCounter struct {
	repository.Store
	sessions int
}

func (s *sessionCounter) Session(ctx context.Context, fn func(repos repository.Repositories) error) error {
	s.sessions++
	return s.Store.Session(ctx, fn)
}

func TestOperationsUseOneSession(t *testing.T) {
	f := newFixture(t)
	counter := &sessionCounter{Store: f.store}
	uc := NewAuthUsecase(counter, f.issuer, bcrypt.MinCost, logger.Discard())
	ctx := context.Background()

	expectOne := func(t *testing.T, name string, op func() error) {
		t.Helper()
		counter.sessions = 0
		require.NoError(t, op(), name)
		assert.Equal(t, 1, counter.sessions, name)
	}

	var signup *authdto.TokenResponse
	expectOne(t, "signup", func() error {
		var err error
		signup, err = uc.SignUp(ctx, &authdto.SignUpRequest{Username: "abc", Password: "abcde"})
		return err
	})
	expectOne(t, "login", func() error {
		_, err := uc.Login(ctx, &authdto.LoginRequest{Username: "abc", Password: "abcde"})
		return err
	})

	counter.sessions = 0
	access, err := uc.VerifyAccessToken(ctx, signup.AccessToken)
	require.NoError(t, err)
	refresh, err := uc.VerifyRefreshToken(ctx, signup.RefreshToken)
	require.NoError(t, err)
	assert.Zero(t, counter.sessions, "verification must not touch the database")

	expectOne(t, "refresh", func() error {
		_, err := uc.RefreshToken(ctx, refresh)
		return err
	})
	expectOne(t, "me", func() error {
		_, err := uc.Me(ctx, access)
		return err
	})
	expectOne(t, "change password", func() error {
		return uc.ChangePassword(ctx, access, "brand-new")
	})
	expectOne(t, "logout", func() error {
		return uc.Logout(ctx, access, signup.RefreshToken)
	})
}

func TestSignUp_EmptyEmailIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.SignUp(ctx, &authdto.SignUpRequest{Username: "first", Password: "abcde", Email: strPtr("")})
	require.NoError(t, err)
	resp, err := f.uc.SignUp(ctx, &authdto.SignUpRequest{Username: "second", Password: "abcde", Email: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, resp.User.Email)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.SignUp(ctx, &authdto.SignUpRequest{Username: "abc", Password: "abcde"})
	require.NoError(t, err)

	t.Run("correct credentials", func(t *testing.T) {
		resp, err := f.uc.Login(ctx, &authdto.LoginRequest{Username: "abc", Password: "abcde"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.Equal(t, "abc", resp.User.Username)

		claims, err := f.issuer.VerifyAccessToken(resp.AccessToken)
		require.NoError(t, err)
		assert.True(t, claims.Fresh)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.uc.Login(ctx, &authdto.LoginRequest{Username: "abc", Password: "wrong"})
		assertDomainError(t, err, authdomain.KindAuthentication, authdomain.MsgInvalidCredentials)
	})

	t.Run("unknown user gets the same error", func(t *testing.T) {
		_, err := f.uc.Login(ctx, &authdto.LoginRequest{Username: "nobody", Password: "abcde"})
		assertDomainError(t, err, authdomain.KindAuthentication, authdomain.MsgInvalidCredentials)
	})
}

func TestRefreshToken_IssuesNonFreshAccessToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	signup, err := f.uc.SignUp(ctx, &authdto.SignUpRequest{Username: "abc", Password: "abcde"})
	require.NoError(t, err)

	claims, err := f.uc.VerifyRefreshToken(ctx, signup.RefreshToken)
	require.NoError(t, err)

	resp, err := f.uc.RefreshToken(ctx, claims)
	require.NoError(t, err)
	assert.Empty(t, resp.RefreshToken)
	assert.NotEqual(t, signup.AccessToken, resp.AccessToken)

	access, err := f.issuer.VerifyAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "abc", access.Identity())
	assert.False(t, access.Fresh)
}

func TestVerifyRefreshToken_RejectsAccessToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	signup, err := f.uc.SignUp(ctx, &authdto.SignUpRequest{Username: "abc", Password: "abcde"})
	require.NoError(t, err)

	_, err = f.uc.VerifyRefreshToken(ctx, signup.AccessToken)
	assertDomainError(t, err, authdomain.KindAuthentication, authdomain.MsgInvalidToken)

	_, err = f.uc.VerifyAccessToken(ctx, signup.RefreshToken)
	assertDomainError(t, err, authdomain.KindAuthentication, authdomain.MsgInvalidToken)
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	signup, err := f.uc.SignUp(ctx, &authdto.SignUpRequest{Username: "abc", Password: "abcde", LastName: "Lovelace"})
	require.NoError(t, err)
	claims, err := f.uc.VerifyAccessToken(ctx, signup.AccessToken)
	require.NoError(t, err)

	user, err := f.uc.Me(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, "abc", user.Username)
	assert.Equal(t, "Lovelace", user.LastName)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	signup, err := f.uc.SignUp(ctx, &authdto.SignUpRequest{Username: "abc", Password: "abcde"})
	require.NoError(t, err)
	claims, err := f.uc.VerifyAccessToken(ctx, signup.AccessToken)
	require.NoError(t, err)

	err = f.uc.ChangePassword(ctx, claims, "abc")
	assertDomainError(t, err, authdomain.KindValidation, authdomain.MsgInvalidPassword)

	require.NoError(t, f.uc.ChangePassword(ctx, claims, "brand-new"))

	_, err = f.uc.Login(ctx, &authdto.LoginRequest{Username: "abc", Password: "abcde"})
	assertDomainError(t, err, authdomain.KindAuthentication, authdomain.MsgInvalidCredentials)
	_, err = f.uc.Login(ctx, &authdto.LoginRequest{Username: "abc", Password: "brand-new"})
	require.NoError(t, err)
}

func TestLogout_DenylistsTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	signup, err := f.uc.SignUp(ctx, &authdto.SignUpRequest{Username: "abc", Password: "abcde"})
	require.NoError(t, err)
	claims, err := f.uc.VerifyAccessToken(ctx, signup.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.uc.Logout(ctx, claims, signup.RefreshToken))

	_, err = f.uc.Me(ctx, claims)
	assertDomainError(t, err, authdomain.KindAuthentication, authdomain.MsgInvalidToken)
	err = f.uc.ChangePassword(ctx, claims, "brand-new")
	assertDomainError(t, err, authdomain.KindAuthentication, authdomain.MsgInvalidToken)
	err = f.uc.Logout(ctx, claims, "")
	assertDomainError(t, err, authdomain.KindAuthentication, authdomain.MsgInvalidToken)

	refreshClaims, err := f.uc.VerifyRefreshToken(ctx, signup.RefreshToken)
	require.NoError(t, err)
	_, err = f.uc.RefreshToken(ctx, refreshClaims)
	assertDomainError(t, err, authdomain.KindAuthentication, authdomain.MsgInvalidToken)
}

func TestLogout_IgnoresForeignRefreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine, err := f.uc.SignUp(ctx, &authdto.SignUpRequest{Username: "abc", Password: "abcde"})
	require.NoError(t, err)
	theirs, err := f.uc.SignUp(ctx, &authdto.SignUpRequest{Username: "xyz", Password: "abcde"})
	require.NoError(t, err)

	claims, err := f.uc.VerifyAccessToken(ctx, mine.AccessToken)
	require.NoError(t, err)
	require.NoError(t, f.uc.Logout(ctx, claims, theirs.RefreshToken))

	theirClaims, err := f.uc.VerifyRefreshToken(ctx, theirs.RefreshToken)
	require.NoError(t, err)
	_, err = f.uc.RefreshToken(ctx, theirClaims)
	assert.NoError(t, err)
}

// racingUsers passes the proactive checks but loses the insert, as a concurrent sign-up would.
type racingUsers struct {
	repository.UserRepository
	createErr error
}

func (r *racingUsers) ExistsByField(field, value string) (bool, error) { return false, nil }

func (r *racingUsers) Create(user *authdomain.User, password string) error { return r.createErr }

type stubStore struct {
	repos repository.Repositories
	err   error
}

func (s *stubStore) Session(ctx context.Context, fn func(repos repository.Repositories) error) error {
	if s.err != nil {
		return s.err
	}
	return fn(s.repos)
}

func TestSignUp_StorageConstraintMapsToConflict(t *testing.T) {
	issuer := token.NewIssuer("test-secret", time.Minute, time.Hour)

	tests := []struct {
		name      string
		createErr error
		message   string
	}{
		{"username", fmt.Errorf("create user: %w", authdomain.ErrDuplicateUsername), authdomain.MsgUsernameTaken},
		{"email", fmt.Errorf("create user: %w", authdomain.ErrDuplicateEmail), authdomain.MsgEmailTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &stubStore{repos: repository.Repositories{Users: &racingUsers{createErr: tt.createErr}}}
			uc := NewAuthUsecase(store, issuer, bcrypt.MinCost, logger.Discard())

			_, err := uc.SignUp(context.Background(), &authdto.SignUpRequest{
				Username: "abc", Password: "abcde", Email: strPtr("abc@example.com"),
			})
			assertDomainError(t, err, authdomain.KindConflict, tt.message)
		})
	}
}

func TestDatabaseFailuresAreHidden(t *testing.T) {
	issuer := token.NewIssuer("test-secret", time.Minute, time.Hour)
	store := &stubStore{err: errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")}
	uc := NewAuthUsecase(store, issuer, bcrypt.MinCost, logger.Discard())
	ctx := context.Background()

	_, err := uc.SignUp(ctx, &authdto.SignUpRequest{Username: "abc", Password: "abcde"})
	assertDomainError(t, err, authdomain.KindInternal, authdomain.MsgInternal)

	_, err = uc.Login(ctx, &authdto.LoginRequest{Username: "abc", Password: "abcde"})
	assertDomainError(t, err, authdomain.KindInternal, authdomain.MsgInternal)
	assert.NotContains(t, err.Error(), "10.0.0.5")
}
