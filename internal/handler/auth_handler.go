package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/middleware"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/model"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/service"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/pkg/jwtutil"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/pkg/logger"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RegisterRequest is the body of POST /api/auth/register
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,max=150"`
	Phone    string `json:"phone" validate:"max=30"`
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries an issued access token
type TokenResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      model.User      `json:"user"`
	Customer  *model.Customer `json:"customer,omitempty"`
}

// AuthHandler registers customers and issues tokens
type AuthHandler struct {
	accounts     *service.AccountService
	jwt          *jwtutil.JWTUtil
	secureCookie bool
}

// NewAuthHandler creates a new auth handler. secureCookie marks the token
// cookie as HTTPS only.
func NewAuthHandler(accounts *service.AccountService, jwt *jwtutil.JWTUtil, secureCookie bool) *AuthHandler {
	return &AuthHandler{accounts: accounts, jwt: jwt, secureCookie: secureCookie}
}

// Register creates a customer account and signs it in
func (h *AuthHandler) Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAuthAttempt("register")

	var req RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return err
	}

	user, customer, err := h.accounts.RegisterCustomer(c.Request().Context(), req.Email, req.Password, req.Name, req.Phone)
	if errors.Is(err, service.ErrConflict) {
		log.Warn("Registration with a taken email", zap.String("email", req.Email))
		prometheus.RecordAuthError("email_taken")
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}
	if err != nil {
		return respondError(c, log, err, "register")
	}

	resp, err := h.issue(c, *user)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}
	resp.Customer = customer

	log.Info("Customer registered", zap.Uint("user_id", user.ID), zap.String("email", user.Email))
	return c.JSON(http.StatusCreated, resp)
}

// Login checks the credentials and issues a token
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAuthAttempt("login")

	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return err
	}

	user, err := h.accounts.Authenticate(c.Request().Context(), req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		log.Warn("Invalid credentials", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_credentials")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		return respondError(c, log, err, "login")
	}

	resp, err := h.issue(c, *user)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("User logged in", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, resp)
}

// Logout clears the token cookie
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return c.NoContent(http.StatusNoContent)
}

// issue signs a token for the user and sets it as a cookie for page requests
func (h *AuthHandler) issue(c echo.Context, user model.User) (*TokenResponse, error) {
	token, err := h.jwt.GenerateToken(user.Email, user.ID)
	if err != nil {
		return nil, err
	}
	ttl := h.jwt.TokenTTL()

	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	return &TokenResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(ttl),
		User:      user,
	}, nil
}
