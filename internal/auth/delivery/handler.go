package delivery

import (
	"errors"
	"log/slog"
	"net/http"

	authdomain "ireporter-backend/internal/auth/domain"
	authdto "ireporter-backend/internal/auth/dto"
	"ireporter-backend/internal/auth/usecase"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const outcomeSuccess = "success"

// AuthHandler handles identity HTTP requests
type AuthHandler struct {
	authUsecase usecase.AuthUsecase
	metrics     *Metrics
	logger      *slog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authUsecase usecase.AuthUsecase, metrics *Metrics, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		metrics:     metrics,
		logger:      logger,
	}
}

// SignUp registers a new user
// POST /auth/signup
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req authdto.SignUpRequest
	if err := bindCredentials(c, &req); err != nil {
		h.fail(c, "signup", err)
		return
	}

	resp, err := h.authUsecase.SignUp(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, "signup", err)
		return
	}

	h.metrics.observe("signup", outcomeSuccess)
	respondData(c, http.StatusCreated, resp)
}

// Login returns a fresh access token and a refresh token
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req authdto.LoginRequest
	if err := bindCredentials(c, &req); err != nil {
		h.fail(c, "login", err)
		return
	}

	resp, err := h.authUsecase.Login(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, "login", err)
		return
	}

	h.metrics.observe("login", outcomeSuccess)
	respondData(c, http.StatusOK, resp)
}

// RefreshToken exchanges the bearer refresh token for a new, non-fresh access token
// POST /auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	claims, ok := claimsFrom(c)
	if !ok {
		h.fail(c, "refresh", authdomain.AuthenticationError(authdomain.MsgInvalidToken, nil))
		return
	}

	resp, err := h.authUsecase.RefreshToken(c.Request.Context(), claims)
	if err != nil {
		h.fail(c, "refresh", err)
		return
	}

	h.metrics.observe("refresh", outcomeSuccess)
	respondData(c, http.StatusOK, resp)
}

// Me returns the authenticated user
// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := claimsFrom(c)
	if !ok {
		h.fail(c, "me", authdomain.AuthenticationError(authdomain.MsgInvalidToken, nil))
		return
	}

	user, err := h.authUsecase.Me(c.Request.Context(), claims)
	if err != nil {
		h.fail(c, "me", err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"user": user})
}

// ChangePassword sets a new password. Requires a fresh access token
// PUT /auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	claims, ok := claimsFrom(c)
	if !ok {
		h.fail(c, "change_password", authdomain.AuthenticationError(authdomain.MsgInvalidToken, nil))
		return
	}

	var req authdto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, "change_password", authdomain.ValidationError(authdomain.MsgInvalidPassword))
		return
	}

	if err := h.authUsecase.ChangePassword(c.Request.Context(), claims, req.Password); err != nil {
		h.fail(c, "change_password", err)
		return
	}

	h.metrics.observe("change_password", outcomeSuccess)
	c.JSON(http.StatusOK, authdto.Envelope{
		Status:  http.StatusOK,
		Message: "Password updated",
	})
}

// Logout denylists the bearer access token and the optional refresh token in the body
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := claimsFrom(c)
	if !ok {
		h.fail(c, "logout", authdomain.AuthenticationError(authdomain.MsgInvalidToken, nil))
		return
	}

	var req authdto.LogoutRequest
	// body is optional
	_ = c.ShouldBindJSON(&req)

	if err := h.authUsecase.Logout(c.Request.Context(), claims, req.RefreshToken); err != nil {
		h.fail(c, "logout", err)
		return
	}

	h.metrics.observe("logout", outcomeSuccess)
	c.JSON(http.StatusOK, authdto.Envelope{
		Status:  http.StatusOK,
		Message: "Successfully logged out",
	})
}

// bindCredentials requires the username and password keys, then decodes the
// whole body into req.
func bindCredentials(c *gin.Context, req any) error {
	var creds authdto.Credentials
	if err := c.ShouldBindBodyWith(&creds, binding.JSON); err != nil {
		return authdomain.ValidationError(authdomain.MsgMissingCredentials)
	}
	if err := c.ShouldBindBodyWith(req, binding.JSON); err != nil {
		var boolErr *authdto.InvalidBoolError
		if errors.As(err, &boolErr) {
			return authdomain.ValidationError(authdomain.MsgInvalidIsAdmin)
		}
		return authdomain.ValidationError(authdomain.MsgMissingCredentials)
	}
	return nil
}

func (h *AuthHandler) fail(c *gin.Context, operation string, err error) {
	kind := authdomain.KindOf(err)
	h.metrics.observe(operation, kind.String())
	if kind == authdomain.KindInternal {
		h.logger.ErrorContext(c.Request.Context(), "request failed", "operation", operation, "path", c.FullPath(), "error", err)
	}
	abortWithError(c, err)
}
