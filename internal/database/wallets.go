package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"teo-client-go/internal/models"
	"teo-client-go/internal/store"
)

func (s *Service) CreateChallenge(ctx context.Context, rec models.ChallengeRecord) error {
	_, err := s.db.ExecContext(ctx, queryInsertChallenge,
		rec.Nonce, rec.UserId, rec.Address, rec.Purpose, rec.Message,
		unix(rec.ExpiresAt), unix(rec.CreatedAt))
	if err != nil {
		return fmt.Errorf("unable to insert challenge: %w", err)
	}
	return nil
}

// ConsumeChallenge marks the nonce used and returns it. An expired challenge is
// still consumed and reported with store.ErrChallengeExpired.
func (s *Service) ConsumeChallenge(ctx context.Context, nonce, userId string, now time.Time) (*models.ChallengeRecord, error) {
	var rec models.ChallengeRecord
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var used int
		var expiresAt, createdAt int64
		err := tx.QueryRowContext(ctx, queryGetChallenge, nonce).Scan(
			&rec.Nonce, &rec.UserId, &rec.Address, &rec.Purpose, &rec.Message,
			&used, &expiresAt, &createdAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrChallengeInvalid
			}
			return fmt.Errorf("unable to query challenge: %w", err)
		}
		rec.Used = used != 0
		rec.ExpiresAt = fromUnix(expiresAt)
		rec.CreatedAt = fromUnix(createdAt)

		if rec.Used || rec.UserId != userId {
			return store.ErrChallengeInvalid
		}
		if _, err := tx.ExecContext(ctx, queryMarkChallengeUsed, nonce); err != nil {
			return fmt.Errorf("unable to mark challenge used: %w", err)
		}
		rec.Used = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !now.Before(rec.ExpiresAt) {
		return &rec, store.ErrChallengeExpired
	}
	return &rec, nil
}

// LinkWallet replaces the user's link with address and fails with
// store.ErrAddressTaken if another user holds it.
func (s *Service) LinkWallet(ctx context.Context, userId, address string, now time.Time) (*models.WalletLink, error) {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var owner string
		err := tx.QueryRowContext(ctx, queryGetLinkOwner, address).Scan(&owner)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("unable to query link owner: %w", err)
		}
		if err == nil && owner != userId {
			return store.ErrAddressTaken
		}
		if _, err := tx.ExecContext(ctx, queryUpsertWalletLink, userId, address, unix(now)); err != nil {
			return fmt.Errorf("unable to store wallet link: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Wallet link stored", zap.String("user_id", userId), zap.String("address", address))
	return &models.WalletLink{Address: address, Status: models.WalletLinked, LinkedAt: fromUnix(unix(now))}, nil
}

func (s *Service) UnlinkWallet(ctx context.Context, userId string) error {
	if _, err := s.db.ExecContext(ctx, queryDeleteWalletLink, userId); err != nil {
		return fmt.Errorf("unable to delete wallet link: %w", err)
	}
	zap.L().Info("Wallet link removed", zap.String("user_id", userId))
	return nil
}

// GetWalletLink returns an unlinked status, not an error, when the user has no link.
func (s *Service) GetWalletLink(ctx context.Context, userId string) (*models.WalletLink, error) {
	var address string
	var linkedAt int64
	err := s.db.QueryRowContext(ctx, queryGetWalletLink, userId).Scan(&address, &linkedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.WalletLink{Status: models.WalletUnlinked}, nil
		}
		return nil, fmt.Errorf("unable to query wallet link: %w", err)
	}
	return &models.WalletLink{Address: address, Status: models.WalletLinked, LinkedAt: fromUnix(linkedAt)}, nil
}
