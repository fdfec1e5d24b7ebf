package store

import (
	"context"
	"errors"
	"time"

	"teo-client-go/internal/models"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrNotFound         = errors.New("record not found")
	ErrChallengeInvalid = errors.New("challenge unknown or already used")
	ErrChallengeExpired = errors.New("challenge expired")
	ErrAddressTaken     = errors.New("address linked to another user")
	ErrAlreadyDecided   = errors.New("decision already made")
	ErrExpired          = errors.New("decision expired")
)

// Decision verdict values stored in the decisions table.
const (
	DecisionPending  = "pending"
	DecisionAccepted = "accepted"
	DecisionDeclined = "declined"
)

// Operation status values.
const (
	OperationPending  = "pending"
	OperationCredited = "credited"
	OperationStaked   = "staked"
)

// BackendStore defines the contract the reference backend's storage must satisfy.
type BackendStore interface {
	// --- Users ---
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUserById(ctx context.Context, userId string) (*models.User, error)
	CreateUser(ctx context.Context, userId, name, email string) (*models.User, error)

	// --- Challenges ---
	CreateChallenge(ctx context.Context, rec models.ChallengeRecord) error
	// ConsumeChallenge marks the challenge used whatever the outcome, so a
	// nonce is accepted or rejected exactly once.
	ConsumeChallenge(ctx context.Context, nonce, userId string, now time.Time) (*models.ChallengeRecord, error)

	// --- Wallet links ---
	LinkWallet(ctx context.Context, userId, address string, now time.Time) (*models.WalletLink, error)
	UnlinkWallet(ctx context.Context, userId string) error
	GetWalletLink(ctx context.Context, userId string) (*models.WalletLink, error)

	// --- Discount decisions ---
	CreateSnapshot(ctx context.Context, rec models.SnapshotRecord) (*models.SnapshotRecord, error)
	ListPendingSnapshots(ctx context.Context, teacherId string, now time.Time) ([]models.SnapshotRecord, error)
	CountPendingDecisions(ctx context.Context, teacherId string, now time.Time) (int, error)
	BackfillDecisions(ctx context.Context, teacherId string, snapshotIds []int64, now time.Time) (int, error)
	GetDecision(ctx context.Context, teacherId string, decisionId int64) (*models.DecisionRecord, error)
	Decide(ctx context.Context, teacherId string, decisionId int64, verdict string, now time.Time) (*models.DecisionRecord, error)

	// --- Wallet operations ---
	// RecordWalletOperation is idempotent on (user, idempotency key) and on
	// burn tx hash: a repeat returns the first record.
	RecordWalletOperation(ctx context.Context, op models.WalletOperation) (*models.WalletOperation, error)

	// --- Lifecycle ---
	Close()
}
