package backend

import (
	"context"
	"fmt"
	"net/http"

	"teo-client-go/internal/models"
)

// RequestChallenge asks for a fresh single-use challenge for address.
func (c *Client) RequestChallenge(ctx context.Context, purpose models.ChallengePurpose, address string) (*models.Challenge, error) {
	if address == "" {
		return nil, fmt.Errorf("address cannot be empty")
	}

	req := models.ChallengeRequest{Address: address, Purpose: purpose}

	var resp models.Challenge
	if err := c.doRequest(ctx, http.MethodPost, "/api/wallet/challenge", req, &resp); err != nil {
		return nil, fmt.Errorf("requesting challenge: %w", err)
	}
	return &resp, nil
}

// LinkWallet submits the signed challenge. The returned link supersedes any previous one.
func (c *Client) LinkWallet(ctx context.Context, address, signature, nonce string) (*models.WalletLink, error) {
	if address == "" || signature == "" || nonce == "" {
		return nil, fmt.Errorf("address, signature and nonce are required")
	}

	req := models.LinkWalletRequest{Address: address, Signature: signature, Nonce: nonce}

	var resp models.WalletLink
	if err := c.doRequest(ctx, http.MethodPost, "/api/wallet/link", req, &resp); err != nil {
		return nil, fmt.Errorf("linking wallet: %w", err)
	}
	return &resp, nil
}

// UnlinkWallet removes the current user's wallet link.
func (c *Client) UnlinkWallet(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodPost, "/api/wallet/unlink", struct{}{}, nil); err != nil {
		return fmt.Errorf("unlinking wallet: %w", err)
	}
	return nil
}

// GetWallet returns the backend's current wallet link for the user.
func (c *Client) GetWallet(ctx context.Context) (*models.WalletLink, error) {
	var resp models.WalletLink
	if err := c.doRequest(ctx, http.MethodGet, "/api/wallet", nil, &resp); err != nil {
		return nil, fmt.Errorf("getting wallet: %w", err)
	}
	if resp.Status == "" {
		resp.Status = models.WalletUnlinked
	}
	return &resp, nil
}
