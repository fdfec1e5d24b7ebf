package api

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"teo-client-go/internal/agent"
	"teo-client-go/internal/models"
)

// BurnForCredit burns amount TEO on-chain from opts.From and asks the backend
// to credit it. If the burn lands but the credit call fails, the result carries
// the tx hash so CreditBurn can be retried without burning again.
func (s *BalanceService) BurnForCredit(ctx context.Context, opts *bind.TransactOpts, address string, amount decimal.Decimal) (*models.BalanceResult, error) {
	normalized, err := agent.NormalizeAddress(address)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) || opts == nil {
		return &models.BalanceResult{
			Success: false,
			Kind:    models.OperationBurnCredit,
			Error:   "invalid burn parameters",
		}, nil
	}
	if !agent.SameAddress(opts.From.Hex(), normalized) {
		return &models.BalanceResult{
			Success: false,
			Kind:    models.OperationBurnCredit,
			Address: normalized,
			Error:   "signer does not match linked address",
		}, nil
	}
	if s.token == nil {
		return &models.BalanceResult{
			Success: false,
			Kind:    models.OperationBurnCredit,
			Address: normalized,
			Error:   "token contract not configured",
		}, nil
	}

	zap.L().Info("Burning TEO for platform credit",
		zap.String("address", normalized),
		zap.String("amount", amount.String()))

	if opts.Context == nil {
		opts.Context = ctx
	}
	txHash, err := s.token.Burn(opts, amount)
	if err != nil {
		zap.L().Error("Burn transaction failed",
			zap.String("address", normalized),
			zap.String("amount", amount.String()),
			zap.Error(err))
		return &models.BalanceResult{
			Success: false,
			Kind:    models.OperationBurnCredit,
			Address: normalized,
			Amount:  amount,
			Error:   err.Error(),
		}, nil
	}

	return s.CreditBurn(ctx, normalized, amount, txHash)
}

// CreditBurn reports an already-mined burn to the backend.
func (s *BalanceService) CreditBurn(ctx context.Context, address string, amount decimal.Decimal, txHash string) (*models.BalanceResult, error) {
	normalized, err := agent.NormalizeAddress(address)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) || !strings.HasPrefix(txHash, "0x") {
		return &models.BalanceResult{
			Success: false,
			Kind:    models.OperationBurnCredit,
			TxHash:  txHash,
			Error:   "invalid burn-credit parameters",
		}, nil
	}

	conf, err := s.backend.CreditBurn(ctx, models.BurnCreditRequest{
		Address: normalized,
		Amount:  amount,
		TxHash:  txHash,
	})
	if err != nil {
		zap.L().Error("Burn credit failed",
			zap.String("address", normalized),
			zap.String("amount", amount.String()),
			zap.String("tx_hash", txHash),
			zap.Error(err))
		return &models.BalanceResult{
			Success: false,
			Kind:    models.OperationBurnCredit,
			Address: normalized,
			Amount:  amount,
			TxHash:  txHash,
			Error:   userMessage(err),
		}, nil
	}

	zap.L().Info("Burn credited",
		zap.String("address", normalized),
		zap.String("amount", amount.String()),
		zap.String("tx_hash", txHash),
		zap.String("confirmation_id", conf.Id))

	s.walletUpdated("burn_credit")

	return &models.BalanceResult{
		Success:        true,
		Kind:           models.OperationBurnCredit,
		Address:        normalized,
		Amount:         amount,
		TxHash:         txHash,
		ConfirmationId: conf.Id,
	}, nil
}
