// Package wallet runs the wallet-linking handshake: chain check, account
// discovery, challenge, personal signature and backend link.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"teo-client-go/internal/agent"
	"teo-client-go/internal/backend"
	"teo-client-go/internal/events"
	"teo-client-go/internal/models"
	"teo-client-go/internal/retry"
)

// State is a handshake state.
type State string

const (
	StateDisconnected        State = "disconnected"
	StateChainVerifying      State = "chain_verifying"
	StateAccountRequesting   State = "account_requesting"
	StateChallengeRequesting State = "challenge_requesting"
	StateSigningPending      State = "signing_pending"
	StateLinking             State = "linking"
	StateLinked              State = "linked"
	StateUnlinked            State = "unlinked"
	StateError               State = "error"
)

var (
	// ErrAuthRequired is returned before any agent interaction when the user has no session.
	ErrAuthRequired = errors.New("authentication required")

	// ErrChainMismatch wraps a failed switch to the platform network.
	ErrChainMismatch = errors.New("signing agent is not on the required network")

	// ErrNoAccounts means the agent is present but exposed no account.
	ErrNoAccounts = errors.New("signing agent returned no accounts")

	// ErrHandshakeInFlight rejects a connect or unlink while another one runs.
	ErrHandshakeInFlight = errors.New("wallet handshake already in progress")

	// ErrLinkRejected wraps the backend's refusal of a signed challenge.
	ErrLinkRejected = errors.New("backend rejected wallet link")
)

// Backend is the subset of the backend client the session uses.
type Backend interface {
	Authenticated() bool
	LinkWallet(ctx context.Context, address, signature, nonce string) (*models.WalletLink, error)
	UnlinkWallet(ctx context.Context) error
	GetWallet(ctx context.Context) (*models.WalletLink, error)
}

var _ Backend = (*backend.Client)(nil)

// Challenges issues fresh challenges.
type Challenges interface {
	Request(ctx context.Context, purpose models.ChallengePurpose, address string) (*models.Challenge, error)
}

// SessionConfig holds a Session's collaborators.
type SessionConfig struct {
	Agent      agent.Adapter
	Challenges Challenges
	Backend    Backend
	Network    models.Network
	Events     events.Publisher
	Retry      retry.Policy
}

// Session is one user's link/unlink state machine. Operations on a Session
// are strictly sequential; overlapping calls fail with ErrHandshakeInFlight.
type Session struct {
	cfg SessionConfig

	mu       sync.Mutex
	state    State
	link     *models.WalletLink
	lastErr  error
	inFlight bool
}

func NewSession(cfg SessionConfig) *Session {
	return &Session{cfg: cfg, state: StateDisconnected}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Link returns a copy of the last confirmed link, or nil.
func (s *Session) Link() *models.WalletLink {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.link == nil {
		return nil
	}
	l := *s.link
	return &l
}

// LastError returns the error that put the session in StateError.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	prev := s.state
	s.state = st
	s.mu.Unlock()

	zap.L().Debug("Wallet session transition",
		zap.String("from", string(prev)),
		zap.String("state", string(st)))
}

// begin claims the session for one operation.
func (s *Session) begin() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return s.state, ErrHandshakeInFlight
	}
	switch s.state {
	case StateDisconnected, StateUnlinked, StateError, StateLinked:
	default:
		return s.state, ErrHandshakeInFlight
	}
	s.inFlight = true
	return s.state, nil
}

func (s *Session) end() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

// Connect runs the handshake. When already linked it re-validates the link
// with the backend and republishes it instead of asking for a new signature.
func (s *Session) Connect(ctx context.Context) (*models.WalletLink, error) {
	if !s.cfg.Backend.Authenticated() {
		return nil, ErrAuthRequired
	}

	from, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer s.end()

	if from == StateLinked {
		return s.revalidate(ctx)
	}
	return s.handshake(ctx)
}

func (s *Session) handshake(ctx context.Context) (*models.WalletLink, error) {
	s.setState(StateChainVerifying)
	if err := s.cfg.Agent.SwitchOrAddChain(ctx, s.cfg.Network); err != nil {
		if errors.Is(err, agent.ErrAgentUnavailable) {
			return nil, s.fail(err)
		}
		return nil, s.fail(fmt.Errorf("%w: chain %d: %w", ErrChainMismatch, s.cfg.Network.ChainID, err))
	}

	s.setState(StateAccountRequesting)
	accounts, err := s.cfg.Agent.RequestAccounts(ctx)
	if err != nil {
		if errors.Is(err, agent.ErrUserRejected) {
			return nil, s.declined(err)
		}
		return nil, s.fail(fmt.Errorf("requesting accounts: %w", err))
	}
	if len(accounts) == 0 {
		return nil, s.fail(ErrNoAccounts)
	}
	address, err := agent.NormalizeAddress(accounts[0])
	if err != nil {
		return nil, s.fail(fmt.Errorf("agent account: %w", err))
	}

	s.setState(StateChallengeRequesting)
	ch, err := s.cfg.Challenges.Request(ctx, models.PurposeLinkWallet, address)
	if err != nil {
		return nil, s.fail(fmt.Errorf("requesting challenge: %w", err))
	}

	s.setState(StateSigningPending)
	sig, err := s.cfg.Agent.PersonalSign(ctx, ch.Message, address)
	if err != nil {
		if errors.Is(err, agent.ErrUserRejected) {
			return nil, s.declined(err)
		}
		return nil, s.fail(fmt.Errorf("signing challenge: %w", err))
	}

	s.setState(StateLinking)
	link, err := s.cfg.Backend.LinkWallet(ctx, address, sig, ch.Nonce)
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			zap.L().Warn("Backend rejected wallet link",
				zap.String("address", address),
				zap.String("code", apiErr.Code),
				zap.String("message", apiErr.Message))
			s.reset(StateDisconnected)
			return nil, fmt.Errorf("%w: %w", ErrLinkRejected, err)
		}
		return nil, s.fail(fmt.Errorf("linking wallet: %w", err))
	}

	confirmed := normalizeLink(link, address)

	s.mu.Lock()
	s.link = confirmed
	s.lastErr = nil
	s.mu.Unlock()
	s.setState(StateLinked)

	zap.L().Info("Wallet linked", zap.String("address", confirmed.Address))
	s.publish(confirmed, "linked")
	return confirmed, nil
}

func (s *Session) revalidate(ctx context.Context) (*models.WalletLink, error) {
	link, err := retry.Do(ctx, s.cfg.Retry, "get_wallet", s.cfg.Backend.GetWallet)
	if err != nil {
		return nil, fmt.Errorf("revalidating wallet link: %w", err)
	}

	if !link.IsLinked() {
		zap.L().Info("Backend no longer reports a linked wallet")
		s.mu.Lock()
		s.link = nil
		s.mu.Unlock()
		s.setState(StateDisconnected)
		s.publish(link, "revalidated")
		return link, nil
	}

	confirmed := normalizeLink(link, link.Address)
	s.mu.Lock()
	s.link = confirmed
	s.mu.Unlock()
	s.publish(confirmed, "revalidated")
	return confirmed, nil
}

// Unlink removes the backend link and moves the session to StateUnlinked.
func (s *Session) Unlink(ctx context.Context) error {
	if !s.cfg.Backend.Authenticated() {
		return ErrAuthRequired
	}
	if _, err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	if err := s.cfg.Backend.UnlinkWallet(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.link = nil
	s.lastErr = nil
	s.mu.Unlock()
	s.setState(StateUnlinked)

	zap.L().Info("Wallet unlinked")
	s.publish(&models.WalletLink{Status: models.WalletUnlinked}, "unlinked")
	return nil
}

// Restore loads the backend's current link so a new process starts in the
// right state. It does not publish.
func (s *Session) Restore(ctx context.Context) (*models.WalletLink, error) {
	if !s.cfg.Backend.Authenticated() {
		return nil, ErrAuthRequired
	}
	if _, err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	link, err := retry.Do(ctx, s.cfg.Retry, "get_wallet", s.cfg.Backend.GetWallet)
	if err != nil {
		return nil, fmt.Errorf("loading wallet link: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if link.IsLinked() {
		s.link = normalizeLink(link, link.Address)
		s.state = StateLinked
		l := *s.link
		return &l, nil
	}
	s.link = nil
	s.state = StateDisconnected
	return link, nil
}

func (s *Session) declined(err error) error {
	zap.L().Info("Signature request declined by user")
	s.reset(StateDisconnected)
	return err
}

func (s *Session) fail(err error) error {
	zap.L().Error("Wallet handshake failed", zap.Error(err))
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	s.setState(StateError)
	return err
}

func (s *Session) reset(st State) {
	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()
	s.setState(st)
}

func (s *Session) publish(link *models.WalletLink, reason string) {
	if s.cfg.Events == nil {
		return
	}
	s.cfg.Events.Publish(events.WalletUpdated{Link: link, Reason: reason})
}

func normalizeLink(link *models.WalletLink, address string) *models.WalletLink {
	out := models.WalletLink{Status: models.WalletLinked}
	if link != nil {
		out = *link
	}
	if out.Address == "" {
		out.Address = address
	}
	if normalized, err := agent.NormalizeAddress(out.Address); err == nil {
		out.Address = normalized
	}
	if out.Status == "" {
		out.Status = models.WalletLinked
	}
	return &out
}
