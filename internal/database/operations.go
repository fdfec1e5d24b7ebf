package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"teo-client-go/internal/models"
	"teo-client-go/internal/store"
)

// RecordWalletOperation inserts op unless one with the same idempotency key
// (per user) or tx hash exists, in which case the existing record is returned.
func (s *Service) RecordWalletOperation(ctx context.Context, op models.WalletOperation) (*models.WalletOperation, error) {
	if op.Id == "" {
		op.Id = uuid.New().String()
	}

	var recorded *models.WalletOperation
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, queryInsertWalletOperation,
			op.Id, op.UserId, op.Kind, op.Address, op.Amount.String(), op.TxHash,
			op.IdempotencyKey, op.Status, unix(op.CreatedAt))
		if err != nil {
			return fmt.Errorf("unable to insert wallet operation: %w", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("unable to read rows affected: %w", err)
		}
		if n == 1 {
			recorded, err = scanOperation(tx.QueryRowContext(ctx, queryGetOperationById, op.Id))
			return err
		}

		switch {
		case op.IdempotencyKey != "":
			recorded, err = scanOperation(tx.QueryRowContext(ctx, queryGetOperationByKey, op.UserId, op.IdempotencyKey))
		case op.TxHash != "":
			recorded, err = scanOperation(tx.QueryRowContext(ctx, queryGetOperationByTxHash, op.TxHash))
		default:
			recorded, err = scanOperation(tx.QueryRowContext(ctx, queryGetOperationById, op.Id))
		}
		if err == nil {
			zap.L().Info("Wallet operation already recorded",
				zap.String("operation_id", recorded.Id),
				zap.String("kind", recorded.Kind))
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return recorded, nil
}

func scanOperation(row rowScanner) (*models.WalletOperation, error) {
	var op models.WalletOperation
	var amount string
	var createdAt int64

	err := row.Scan(&op.Id, &op.UserId, &op.Kind, &op.Address, &amount, &op.TxHash,
		&op.IdempotencyKey, &op.Status, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("unable to scan wallet operation: %w", err)
	}

	op.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("wallet operation %s: invalid amount: %w", op.Id, err)
	}
	op.CreatedAt = fromUnix(createdAt)
	return &op, nil
}
