package backend

import (
	"context"
	"fmt"
	"net/http"

	"teo-client-go/internal/models"
)

// CreditBurn reports an on-chain burn so the backend credits the user.
func (c *Client) CreditBurn(ctx context.Context, req models.BurnCreditRequest) (*models.OperationConfirmation, error) {
	var resp models.OperationConfirmation
	if err := c.doRequest(ctx, http.MethodPost, "/api/wallet/burn-credit", req, &resp); err != nil {
		return nil, fmt.Errorf("crediting burn: %w", err)
	}
	return &resp, nil
}

// RequestWithdrawal asks the backend to mint TEO to the linked address.
func (c *Client) RequestWithdrawal(ctx context.Context, req models.AmountRequest) (*models.OperationConfirmation, error) {
	var resp models.OperationConfirmation
	if err := c.doRequest(ctx, http.MethodPost, "/api/wallet/withdrawals", req, &resp); err != nil {
		return nil, fmt.Errorf("requesting withdrawal: %w", err)
	}
	return &resp, nil
}

// Stake moves TEO into the staking balance.
func (c *Client) Stake(ctx context.Context, req models.AmountRequest) (*models.OperationConfirmation, error) {
	var resp models.OperationConfirmation
	if err := c.doRequest(ctx, http.MethodPost, "/api/wallet/stake", req, &resp); err != nil {
		return nil, fmt.Errorf("staking: %w", err)
	}
	return &resp, nil
}
