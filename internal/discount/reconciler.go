package discount

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"teo-client-go/internal/backend"
	"teo-client-go/internal/models"
	"teo-client-go/internal/retry"
)

// Reconciler turns an identifier the UI holds into a full decision, repairing
// the window where a snapshot exists before its decision row does.
type Reconciler struct {
	backend Backend
	retry   retry.Policy
}

func NewReconciler(b Backend, p retry.Policy) *Reconciler {
	return &Reconciler{backend: b, retry: p}
}

// Resolve fetches decision id. On a not-found it backfills from the snapshot
// with the same number, re-lists, and follows the snapshot's new decision id.
// Each call makes at most one backfill request and one re-fetch.
func (r *Reconciler) Resolve(ctx context.Context, id models.DecisionID) (*models.DiscountDecision, error) {
	d, err := r.fetch(ctx, id)
	if err == nil {
		r.enrich(ctx, d, nil)
		return d, nil
	}
	if !backend.IsNotFound(err) {
		return nil, err
	}

	snapshotID := models.SnapshotID(id)
	zap.L().Info("Decision missing, backfilling from snapshot",
		zap.Int64("snapshot_id", int64(snapshotID)))

	if err := r.backend.BackfillDecisions(ctx, []models.SnapshotID{snapshotID}); err != nil {
		zap.L().Error("Decision backfill failed",
			zap.Int64("snapshot_id", int64(snapshotID)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: snapshot %d: %w", ErrRecoveryFailed, snapshotID, err)
	}

	raw, err := retry.Do(ctx, r.retry, "list_pending_snapshots", r.backend.ListPendingSnapshots)
	if err != nil {
		return nil, fmt.Errorf("%w: listing snapshots after backfill: %w", ErrRecoveryFailed, err)
	}

	snap, ok := findSnapshot(raw, snapshotID)
	if !ok || snap.PendingDecisionID == nil {
		return nil, fmt.Errorf("%w: snapshot %d", ErrNoLinkedDecision, snapshotID)
	}

	recovered := *snap.PendingDecisionID
	d, err = r.fetch(ctx, recovered)
	if err != nil {
		return nil, fmt.Errorf("fetching recovered decision %d: %w", recovered, err)
	}

	zap.L().Info("Decision recovered from snapshot",
		zap.Int64("snapshot_id", int64(snapshotID)),
		zap.Int64("decision_id", int64(recovered)))

	r.enrich(ctx, d, raw)
	return d, nil
}

func (r *Reconciler) fetch(ctx context.Context, id models.DecisionID) (*models.DiscountDecision, error) {
	return retry.Do(ctx, r.retry, "get_decision", func(ctx context.Context) (*models.DiscountDecision, error) {
		return r.backend.GetDecision(ctx, id)
	})
}

// enrich patches a pending decision's missing offered amount from the snapshot
// list. Failures are logged and ignored: the decision is usable without it.
func (r *Reconciler) enrich(ctx context.Context, d *models.DiscountDecision, listed []models.DiscountSnapshot) {
	if d.Decision != models.DecisionPending || d.OfferedTeacherTeo != nil {
		return
	}

	if listed == nil {
		var err error
		listed, err = r.backend.ListPendingSnapshots(ctx)
		if err != nil {
			zap.L().Debug("Could not enrich decision", zap.Int64("decision_id", int64(d.ID)), zap.Error(err))
			return
		}
	}

	snap, ok := findByDecision(listed, d.ID)
	if !ok || snap.OfferedTeacherTeo == nil {
		zap.L().Debug("No snapshot carries the offered amount", zap.Int64("decision_id", int64(d.ID)))
		return
	}
	amount := *snap.OfferedTeacherTeo
	d.OfferedTeacherTeo = &amount
}
