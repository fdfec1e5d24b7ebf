package devserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"teo-client-go/internal/agent"
	"teo-client-go/internal/models"
	"teo-client-go/internal/store"
)

// creditBurn handles POST /api/wallet/burn-credit. A tx hash is credited once.
func (s *Server) creditBurn(c echo.Context) error {
	var req models.BurnCreditRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, models.CodeBadRequest, "Invalid request body")
	}
	if req.TxHash == "" {
		return fail(c, http.StatusBadRequest, models.CodeBadRequest, "Transaction hash is required")
	}
	return s.record(c, models.OperationBurnCredit, req.Address, req.Amount, req.TxHash, "", store.OperationCredited)
}

// requestWithdrawal handles POST /api/wallet/withdrawals
func (s *Server) requestWithdrawal(c echo.Context) error {
	var req models.AmountRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, models.CodeBadRequest, "Invalid request body")
	}
	return s.record(c, models.OperationWithdrawal, req.Address, req.Amount, "", req.IdempotencyKey, store.OperationPending)
}

// stake handles POST /api/wallet/stake
func (s *Server) stake(c echo.Context) error {
	var req models.AmountRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, models.CodeBadRequest, "Invalid request body")
	}
	return s.record(c, models.OperationStake, req.Address, req.Amount, "", req.IdempotencyKey, store.OperationStaked)
}

func (s *Server) record(c echo.Context, kind models.OperationKind, address string, amount decimal.Decimal, txHash, key, status string) error {
	if !amount.IsPositive() {
		return fail(c, http.StatusBadRequest, models.CodeBadRequest, "Amount must be greater than zero")
	}
	normalized, err := agent.NormalizeAddress(address)
	if err != nil {
		return fail(c, http.StatusBadRequest, models.CodeBadRequest, "Invalid wallet address")
	}

	ctx := c.Request().Context()
	userId := userOf(c)
	if linked, err := s.linkedTo(ctx, userId, normalized); err != nil {
		return internalError(c, string(kind), err)
	} else if !linked {
		return fail(c, http.StatusForbidden, models.CodeForbidden, "This wallet is not linked to your account")
	}

	op, err := s.store.RecordWalletOperation(ctx, models.WalletOperation{
		UserId:         userId,
		Kind:           string(kind),
		Address:        normalized,
		Amount:         amount,
		TxHash:         txHash,
		IdempotencyKey: key,
		Status:         status,
		CreatedAt:      s.now(),
	})
	if err != nil {
		return internalError(c, string(kind), err)
	}

	zap.L().Info("Wallet operation recorded",
		zap.String("operation_id", op.Id),
		zap.String("kind", op.Kind),
		zap.String("user_id", userId),
		zap.String("amount", op.Amount.String()))

	return ok(c, "", models.OperationConfirmation{
		Id:      op.Id,
		Kind:    models.OperationKind(op.Kind),
		Address: op.Address,
		Amount:  op.Amount,
		Status:  op.Status,
		TxHash:  op.TxHash,
	})
}

func (s *Server) linkedTo(ctx context.Context, userId, address string) (bool, error) {
	link, err := s.store.GetWalletLink(ctx, userId)
	if err != nil {
		return false, err
	}
	return link.IsLinked() && agent.SameAddress(link.Address, address), nil
}
