// Package discount covers the pending-offer list, recovery of decisions that
// the backend has not materialized yet, and the accept/decline actions.
package discount

import (
	"context"
	"errors"

	"teo-client-go/internal/backend"
	"teo-client-go/internal/models"
)

var (
	// ErrRecoveryFailed means the backfill request itself failed.
	ErrRecoveryFailed = errors.New("decision recovery failed")

	// ErrNoLinkedDecision means backfill succeeded but the snapshot still points at no decision.
	ErrNoLinkedDecision = errors.New("recovery succeeded but no linked decision")
)

// Backend is the backend surface for discount decisions.
type Backend interface {
	GetDecision(ctx context.Context, id models.DecisionID) (*models.DiscountDecision, error)
	ListPendingSnapshots(ctx context.Context) ([]models.DiscountSnapshot, error)
	PendingCount(ctx context.Context) (int, error)
	BackfillDecisions(ctx context.Context, snapshotIDs []models.SnapshotID) error
	AcceptDecision(ctx context.Context, id models.DecisionID) (*models.DiscountDecision, error)
	DeclineDecision(ctx context.Context, id models.DecisionID) (*models.DiscountDecision, error)
}

var _ Backend = (*backend.Client)(nil)
