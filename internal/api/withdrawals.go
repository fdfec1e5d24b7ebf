package api

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"teo-client-go/internal/agent"
	"teo-client-go/internal/backend"
	"teo-client-go/internal/models"
)

// RequestWithdrawal asks the backend to mint amount TEO to the linked address
func (s *BalanceService) RequestWithdrawal(ctx context.Context, address string, amount decimal.Decimal) (*models.BalanceResult, error) {
	return s.submit(ctx, models.OperationWithdrawal, address, amount, s.backend.RequestWithdrawal)
}

// Stake moves amount TEO from the platform balance into staking
func (s *BalanceService) Stake(ctx context.Context, address string, amount decimal.Decimal) (*models.BalanceResult, error) {
	return s.submit(ctx, models.OperationStake, address, amount, s.backend.Stake)
}

type amountCall func(ctx context.Context, req models.AmountRequest) (*models.OperationConfirmation, error)

// submit sends one request with a fresh idempotency key. It is never retried
// here; a caller that retries should reuse the key from the logs.
func (s *BalanceService) submit(ctx context.Context, kind models.OperationKind, address string, amount decimal.Decimal, call amountCall) (*models.BalanceResult, error) {
	normalized, err := agent.NormalizeAddress(address)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		zap.L().Error("Invalid balance operation parameters",
			zap.String("kind", string(kind)),
			zap.String("address", address),
			zap.String("amount", amount.String()))
		return &models.BalanceResult{
			Success: false,
			Kind:    kind,
			Error:   "invalid " + string(kind) + " parameters",
		}, nil
	}

	key := uuid.New().String()
	zap.L().Info("Submitting balance operation",
		zap.String("kind", string(kind)),
		zap.String("address", normalized),
		zap.String("amount", amount.String()),
		zap.String("idempotency_key", key))

	conf, err := call(ctx, models.AmountRequest{
		Address:        normalized,
		Amount:         amount,
		IdempotencyKey: key,
	})
	if err != nil {
		zap.L().Error("Balance operation failed",
			zap.String("kind", string(kind)),
			zap.String("address", normalized),
			zap.String("amount", amount.String()),
			zap.String("idempotency_key", key),
			zap.Error(err))
		return &models.BalanceResult{
			Success: false,
			Kind:    kind,
			Address: normalized,
			Amount:  amount,
			Error:   userMessage(err),
		}, nil
	}

	zap.L().Info("Balance operation accepted",
		zap.String("kind", string(kind)),
		zap.String("address", normalized),
		zap.String("confirmation_id", conf.Id),
		zap.String("status", conf.Status))

	s.walletUpdated(string(kind))

	return &models.BalanceResult{
		Success:        true,
		Kind:           kind,
		Address:        normalized,
		Amount:         amount,
		TxHash:         conf.TxHash,
		ConfirmationId: conf.Id,
	}, nil
}

// userMessage prefers the backend's own wording.
func userMessage(err error) string {
	if msg, ok := backend.MessageOf(err); ok {
		return msg
	}
	return err.Error()
}
