// Package challenge obtains single-use wallet-linking challenges from the backend.
package challenge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"teo-client-go/internal/models"
)

var (
	// ErrMalformedChallenge means the backend returned a challenge without a nonce.
	ErrMalformedChallenge = errors.New("malformed challenge")

	// ErrChallengeReused means the backend handed out a nonce this client already used.
	ErrChallengeReused = errors.New("challenge nonce already used")
)

// Issuer is the backend capability that mints challenges.
type Issuer interface {
	RequestChallenge(ctx context.Context, purpose models.ChallengePurpose, address string) (*models.Challenge, error)
}

// FallbackMessage is the text signed when the backend issues a nonce without a message.
func FallbackMessage(nonce string) string {
	return "Sign to link wallet. Nonce: " + nonce
}

// Client requests challenges and refuses any nonce it has seen before.
type Client struct {
	issuer Issuer

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewClient(issuer Issuer) *Client {
	return &Client{
		issuer: issuer,
		seen:   make(map[string]struct{}),
	}
}

// Request fetches a fresh challenge for address. The returned message is the
// backend's text byte for byte; it is only synthesized when the backend sent none.
func (c *Client) Request(ctx context.Context, purpose models.ChallengePurpose, address string) (*models.Challenge, error) {
	ch, err := c.issuer.RequestChallenge(ctx, purpose, address)
	if err != nil {
		return nil, err
	}
	if ch == nil || strings.TrimSpace(ch.Nonce) == "" {
		return nil, ErrMalformedChallenge
	}

	c.mu.Lock()
	_, dup := c.seen[ch.Nonce]
	if !dup {
		c.seen[ch.Nonce] = struct{}{}
	}
	c.mu.Unlock()
	if dup {
		return nil, fmt.Errorf("%w: %s", ErrChallengeReused, ch.Nonce)
	}

	out := *ch
	if out.Message == "" {
		zap.L().Warn("Backend challenge has no message, using fallback text",
			zap.String("nonce", out.Nonce),
			zap.String("purpose", string(purpose)))
		out.Message = FallbackMessage(out.Nonce)
	}
	return &out, nil
}
