// Package auth provides the bearer token used for backend calls and decides
// whether the current actor counts as authenticated.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoToken is returned when no usable token is available (missing or expired).
var ErrNoToken = errors.New("no valid token (login required)")

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Source yields the current access token from a static value or a token file.
type Source struct {
	static string
	path   string
	now    func() time.Time
}

// NewStatic wraps a token obtained out of band (e.g. TEO_TOKEN).
func NewStatic(token string) *Source {
	return &Source{static: token, now: time.Now}
}

// NewFile reads the token from path on every call, so a re-login is picked up.
func NewFile(path string) *Source {
	return &Source{path: path, now: time.Now}
}

// Token returns the access token or ErrNoToken.
func (s *Source) Token() (string, error) {
	tok, exp, err := s.load()
	if err != nil {
		return "", err
	}
	if tok == "" {
		return "", ErrNoToken
	}
	if jwtExp, ok := ExpiryOf(tok); ok {
		exp = jwtExp
	}
	if !exp.IsZero() && !s.now().Before(exp) {
		return "", ErrNoToken
	}
	return tok, nil
}

// Authenticated reports whether Token would succeed.
func (s *Source) Authenticated() bool {
	_, err := s.Token()
	return err == nil
}

func (s *Source) load() (string, time.Time, error) {
	if s.static != "" {
		return s.static, time.Time{}, nil
	}
	if s.path == "" {
		return "", time.Time{}, ErrNoToken
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", time.Time{}, ErrNoToken
		}
		return "", time.Time{}, fmt.Errorf("reading token file: %w", err)
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", time.Time{}, fmt.Errorf("parsing token file: %w", err)
	}
	return tf.AccessToken, tf.ExpiresAt, nil
}

// Save writes the token file with owner-only permissions.
func Save(path, token string, expiresAt time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating token dir: %w", err)
	}
	b, err := json.MarshalIndent(tokenFile{AccessToken: token, ExpiresAt: expiresAt}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

// ExpiryOf extracts the exp claim without verifying the signature; the backend
// remains the authority on validity. ok is false for opaque tokens.
func ExpiryOf(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	_, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
