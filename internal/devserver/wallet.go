package devserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"teo-client-go/internal/agent"
	"teo-client-go/internal/models"
	"teo-client-go/internal/store"
)

// ChallengeMessage is the exact text a wallet signs to link nonce.
func ChallengeMessage(nonce string) string {
	return "Sign to link wallet. Nonce: " + nonce
}

// issueChallenge handles POST /api/wallet/challenge
func (s *Server) issueChallenge(c echo.Context) error {
	var req models.ChallengeRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, models.CodeBadRequest, "Invalid request body")
	}
	if req.Purpose == "" {
		req.Purpose = models.PurposeLinkWallet
	}
	if req.Purpose != models.PurposeLinkWallet {
		return fail(c, http.StatusBadRequest, models.CodeBadRequest, fmt.Sprintf("Unsupported purpose %q", req.Purpose))
	}
	address, err := agent.NormalizeAddress(req.Address)
	if err != nil {
		return fail(c, http.StatusBadRequest, models.CodeBadRequest, "Invalid wallet address")
	}

	now := s.now()
	nonce := uuid.New().String()
	rec := models.ChallengeRecord{
		Nonce:     nonce,
		UserId:    userOf(c),
		Address:   address,
		Purpose:   string(req.Purpose),
		Message:   ChallengeMessage(nonce),
		ExpiresAt: now.Add(s.cfg.ChallengeTTL),
		CreatedAt: now,
	}
	if err := s.store.CreateChallenge(c.Request().Context(), rec); err != nil {
		return internalError(c, "create_challenge", err)
	}

	zap.L().Info("Challenge issued",
		zap.String("user_id", rec.UserId),
		zap.String("address", address),
		zap.Time("expires_at", rec.ExpiresAt))
	return ok(c, "", models.Challenge{Nonce: nonce, Message: rec.Message})
}

// linkWallet handles POST /api/wallet/link. The challenge is consumed before
// the signature is checked, so a nonce never gets a second attempt.
func (s *Server) linkWallet(c echo.Context) error {
	var req models.LinkWalletRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, models.CodeBadRequest, "Invalid request body")
	}
	if req.Nonce == "" || req.Signature == "" {
		return fail(c, http.StatusBadRequest, models.CodeBadRequest, "Nonce and signature are required")
	}
	address, err := agent.NormalizeAddress(req.Address)
	if err != nil {
		return fail(c, http.StatusBadRequest, models.CodeBadRequest, "Invalid wallet address")
	}

	ctx := c.Request().Context()
	userId := userOf(c)

	challenge, err := s.store.ConsumeChallenge(ctx, req.Nonce, userId, s.now())
	switch {
	case errors.Is(err, store.ErrChallengeInvalid):
		return fail(c, http.StatusBadRequest, models.CodeInvalidChallenge, "Challenge is invalid or already used. Please try again.")
	case errors.Is(err, store.ErrChallengeExpired):
		return fail(c, http.StatusBadRequest, models.CodeChallengeExpired, "Challenge expired. Please try again.")
	case err != nil:
		return internalError(c, "consume_challenge", err)
	}

	if !agent.SameAddress(challenge.Address, address) {
		return fail(c, http.StatusBadRequest, models.CodeInvalidChallenge, "Challenge was issued for a different address")
	}

	signer, err := agent.RecoverPersonalSigner(challenge.Message, req.Signature)
	if err != nil || !agent.SameAddress(signer, address) {
		zap.L().Info("Signature does not match address",
			zap.String("user_id", userId),
			zap.String("address", address),
			zap.String("signer", signer))
		return fail(c, http.StatusBadRequest, models.CodeSignatureMismatch, "Signature does not match the wallet address")
	}

	link, err := s.store.LinkWallet(ctx, userId, address, s.now())
	if err != nil {
		if errors.Is(err, store.ErrAddressTaken) {
			return fail(c, http.StatusConflict, models.CodeAddressTaken, "This wallet is already linked to another account")
		}
		return internalError(c, "link_wallet", err)
	}
	return ok(c, "Wallet linked", link)
}

// unlinkWallet handles POST /api/wallet/unlink
func (s *Server) unlinkWallet(c echo.Context) error {
	if err := s.store.UnlinkWallet(c.Request().Context(), userOf(c)); err != nil {
		return internalError(c, "unlink_wallet", err)
	}
	return ok(c, "Wallet unlinked", models.WalletLink{Status: models.WalletUnlinked})
}

// getWallet handles GET /api/wallet
func (s *Server) getWallet(c echo.Context) error {
	link, err := s.store.GetWalletLink(c.Request().Context(), userOf(c))
	if err != nil {
		return internalError(c, "get_wallet", err)
	}
	return ok(c, "", link)
}
