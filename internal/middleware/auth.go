package middleware

import (
	"net/http"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/session"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/pkg/jwtutil"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/pkg/logger"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/prometheus"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	// TokenCookie is the cookie the storefront keeps the access token in
	TokenCookie = "access_token"

	tokenContextKey = "token"
)

// JWTMiddleware parses a bearer token or the access token cookie when one is
// present. Requests without a valid token continue anonymously; the session
// middleware and the Require* gates decide what they may do.
func JWTMiddleware(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:    jwtUtil.SigningKey(),
		SigningMethod: jwt.SigningMethodHS256.Name,
		ContextKey:    tokenContextKey,
		TokenLookup:   "header:Authorization:Bearer ,cookie:" + TokenCookie,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(jwtutil.UserClaims)
		},
		ContinueOnIgnoredError: true,
		ErrorHandler: func(c echo.Context, err error) error {
			// Missing and invalid tokens both continue anonymously
			logger.FromContext(c).Debug("No valid JWT token on request", zap.Error(err))
			return nil
		},
	})
}

// claimsFromContext returns the claims parsed by JWTMiddleware
func claimsFromContext(c echo.Context) (*jwtutil.UserClaims, bool) {
	token, ok := c.Get(tokenContextKey).(*jwt.Token)
	if !ok || token == nil || !token.Valid {
		return nil, false
	}
	claims, ok := token.Claims.(*jwtutil.UserClaims)
	return claims, ok
}

// SessionMiddleware resolves the principal of every request and stores it
// with session.WithSession
func SessionMiddleware(resolver *session.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := claimsFromContext(c)
			if !ok {
				session.WithSession(c, session.Unauthenticated())
				return next(c)
			}

			sess, err := resolver.Resolve(c.Request().Context(), claims.UserID, claims.Email)
			if err != nil {
				logger.FromContext(c).Error("Failed to resolve session",
					zap.Uint("user_id", claims.UserID),
					zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve session"})
			}
			session.WithSession(c, sess)

			return next(c)
		}
	}
}

// RequireAuth rejects requests without an authenticated session
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := session.FromContext(c)
		if err != nil {
			return err
		}
		if !sess.Authenticated() {
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}
		return next(c)
	}
}

// RequireEmployee rejects requests whose session has no active employee profile
func RequireEmployee(next echo.HandlerFunc) echo.HandlerFunc {
	return RequireAuth(func(c echo.Context) error {
		sess, err := session.FromContext(c)
		if err != nil {
			return err
		}
		if !sess.IsEmployee() {
			logger.FromContext(c).Warn("Employee access denied", zap.Uint("user_id", sess.UserID))
			prometheus.RecordAuthError("not_employee")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "employee access required"})
		}
		return next(c)
	})
}
