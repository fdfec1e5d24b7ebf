package devserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"teo-client-go/internal/models"
	"teo-client-go/internal/store"
)

const userKey = "user_id"

// IssueToken mints an HS256 access token for userId, valid for the configured TTL.
func (s *Server) IssueToken(userId string) (string, error) {
	if userId == "" {
		return "", fmt.Errorf("user id cannot be empty")
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userId,
		ID:        uuid.New().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// requireAuth rejects requests without a valid bearer token for a known user.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			return fail(c, http.StatusUnauthorized, models.CodeUnauthorized, "Authentication required")
		}

		var claims jwt.RegisteredClaims
		_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(s.cfg.JWTSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
		if err != nil {
			zap.L().Debug("Rejected bearer token", zap.Error(err))
			return fail(c, http.StatusUnauthorized, models.CodeUnauthorized, "Session expired. Please sign in again.")
		}

		if _, err := s.store.GetUserById(c.Request().Context(), claims.Subject); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fail(c, http.StatusUnauthorized, models.CodeUnauthorized, "Unknown user")
			}
			return internalError(c, "auth", err)
		}

		c.Set(userKey, claims.Subject)
		return next(c)
	}
}

func userOf(c echo.Context) string {
	id, _ := c.Get(userKey).(string)
	return id
}
