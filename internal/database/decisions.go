package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"teo-client-go/internal/models"
	"teo-client-go/internal/store"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Service) CreateSnapshot(ctx context.Context, rec models.SnapshotRecord) (*models.SnapshotRecord, error) {
	var pending sql.NullInt64
	if rec.PendingDecisionId != nil {
		pending = sql.NullInt64{Int64: *rec.PendingDecisionId, Valid: true}
	}
	var teacherTeo sql.NullString
	if rec.TeacherTeo != nil {
		teacherTeo = sql.NullString{String: rec.TeacherTeo.String(), Valid: true}
	}

	result, err := s.db.ExecContext(ctx, queryInsertSnapshot,
		rec.TeacherId, pending, rec.CourseTitle, rec.StudentLabel, rec.CoursePrice.String(),
		rec.DiscountPct.String(), rec.CommissionRate.String(), rec.StakingTier, rec.OfferedTeacherTeo.String(),
		teacherTeo, unix(rec.ExpiresAt), unix(rec.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("unable to insert snapshot: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("unable to read snapshot id: %w", err)
	}

	return scanSnapshot(s.db.QueryRowContext(ctx, queryGetSnapshot, id, rec.TeacherId))
}

func (s *Service) ListPendingSnapshots(ctx context.Context, teacherId string, now time.Time) ([]models.SnapshotRecord, error) {
	rows, err := s.db.QueryContext(ctx, queryListPendingSnapshots, teacherId, unix(now), unix(now))
	if err != nil {
		zap.L().Error("Failed to query pending snapshots", zap.String("teacher_id", teacherId), zap.Error(err))
		return nil, fmt.Errorf("unable to query snapshots: %w", err)
	}
	defer closeRows(rows)

	var snapshots []models.SnapshotRecord
	for rows.Next() {
		rec, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return snapshots, nil
}

func (s *Service) CountPendingDecisions(ctx context.Context, teacherId string, now time.Time) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, queryCountPendingDecisions, teacherId, unix(now)).Scan(&count); err != nil {
		return 0, fmt.Errorf("unable to count decisions: %w", err)
	}
	return count, nil
}

// BackfillDecisions creates a pending decision for each of the teacher's
// snapshots that lacks one. Unknown and already linked snapshots are skipped,
// so repeating a backfill creates nothing.
func (s *Service) BackfillDecisions(ctx context.Context, teacherId string, snapshotIds []int64, now time.Time) (int, error) {
	created := 0
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, snapshotId := range snapshotIds {
			snap, err := scanSnapshot(tx.QueryRowContext(ctx, queryGetSnapshot, snapshotId, teacherId))
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if snap.PendingDecisionId != nil {
				continue
			}

			result, err := tx.ExecContext(ctx, queryInsertDecision,
				snap.Id, teacherId, snap.OfferedTeacherTeo.String(), unix(snap.ExpiresAt), unix(now))
			if err != nil {
				return fmt.Errorf("unable to insert decision for snapshot %d: %w", snap.Id, err)
			}
			decisionId, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("unable to read decision id: %w", err)
			}
			if _, err := tx.ExecContext(ctx, queryLinkSnapshot, decisionId, snap.Id); err != nil {
				return fmt.Errorf("unable to link snapshot %d: %w", snap.Id, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	zap.L().Info("Backfilled decisions",
		zap.String("teacher_id", teacherId),
		zap.Int("requested", len(snapshotIds)),
		zap.Int("created", created))
	return created, nil
}

func (s *Service) GetDecision(ctx context.Context, teacherId string, decisionId int64) (*models.DecisionRecord, error) {
	return scanDecision(s.db.QueryRowContext(ctx, queryGetDecision, decisionId, teacherId))
}

// Decide records verdict on a pending, unexpired decision. Accepting fixes the
// final TEO at the offered amount.
func (s *Service) Decide(ctx context.Context, teacherId string, decisionId int64, verdict string, now time.Time) (*models.DecisionRecord, error) {
	if verdict != store.DecisionAccepted && verdict != store.DecisionDeclined {
		return nil, fmt.Errorf("invalid verdict %q", verdict)
	}

	var decided *models.DecisionRecord
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		rec, err := scanDecision(tx.QueryRowContext(ctx, queryGetDecision, decisionId, teacherId))
		if err != nil {
			return err
		}
		if rec.Decision != store.DecisionPending {
			return store.ErrAlreadyDecided
		}
		if !now.Before(rec.ExpiresAt) {
			return store.ErrExpired
		}

		var final sql.NullString
		if verdict == store.DecisionAccepted {
			final = sql.NullString{String: rec.OfferedTeacherTeo.String(), Valid: true}
		}
		result, err := tx.ExecContext(ctx, queryUpdateDecision, verdict, final, unix(now), decisionId)
		if err != nil {
			return fmt.Errorf("unable to update decision: %w", err)
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			return store.ErrAlreadyDecided
		}

		decided, err = scanDecision(tx.QueryRowContext(ctx, queryGetDecision, decisionId, teacherId))
		return err
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Decision recorded",
		zap.String("teacher_id", teacherId),
		zap.Int64("decision_id", decisionId),
		zap.String("verdict", verdict))
	return decided, nil
}

func scanSnapshot(row rowScanner) (*models.SnapshotRecord, error) {
	var rec models.SnapshotRecord
	var pending sql.NullInt64
	var price, discount, commission, offered string
	var teacherTeo sql.NullString
	var expiresAt, createdAt int64

	err := row.Scan(&rec.Id, &rec.TeacherId, &pending, &rec.CourseTitle, &rec.StudentLabel, &price,
		&discount, &commission, &rec.StakingTier, &offered, &teacherTeo, &expiresAt, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("unable to scan snapshot: %w", err)
	}

	if pending.Valid {
		id := pending.Int64
		rec.PendingDecisionId = &id
	}
	if err := parseDecimals(map[*decimal.Decimal]string{
		&rec.CoursePrice:       price,
		&rec.DiscountPct:       discount,
		&rec.CommissionRate:    commission,
		&rec.OfferedTeacherTeo: offered,
	}); err != nil {
		return nil, fmt.Errorf("snapshot %d: %w", rec.Id, err)
	}
	if teacherTeo.Valid {
		v, err := decimal.NewFromString(teacherTeo.String)
		if err != nil {
			return nil, fmt.Errorf("snapshot %d: invalid teacher_teo: %w", rec.Id, err)
		}
		rec.TeacherTeo = &v
	}
	rec.ExpiresAt = fromUnix(expiresAt)
	rec.CreatedAt = fromUnix(createdAt)
	return &rec, nil
}

func scanDecision(row rowScanner) (*models.DecisionRecord, error) {
	var rec models.DecisionRecord
	var offered, price, discount, commission string
	var final sql.NullString
	var expiresAt, createdAt int64
	var decidedAt sql.NullInt64

	err := row.Scan(&rec.Id, &rec.SnapshotId, &rec.TeacherId, &rec.Decision, &offered, &final,
		&expiresAt, &decidedAt, &createdAt,
		&rec.CourseTitle, &rec.StudentLabel, &price, &discount,
		&commission, &rec.StakingTier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("unable to scan decision: %w", err)
	}

	if err := parseDecimals(map[*decimal.Decimal]string{
		&rec.OfferedTeacherTeo: offered,
		&rec.CoursePrice:       price,
		&rec.DiscountPct:       discount,
		&rec.CommissionRate:    commission,
	}); err != nil {
		return nil, fmt.Errorf("decision %d: %w", rec.Id, err)
	}
	if final.Valid {
		v, err := decimal.NewFromString(final.String)
		if err != nil {
			return nil, fmt.Errorf("decision %d: invalid final_teacher_teo: %w", rec.Id, err)
		}
		rec.FinalTeacherTeo = &v
	}
	if decidedAt.Valid {
		t := fromUnix(decidedAt.Int64)
		rec.DecidedAt = &t
	}
	rec.ExpiresAt = fromUnix(expiresAt)
	rec.CreatedAt = fromUnix(createdAt)
	return &rec, nil
}

func parseDecimals(fields map[*decimal.Decimal]string) error {
	for dst, raw := range fields {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("invalid decimal %q: %w", raw, err)
		}
		*dst = v
	}
	return nil
}
