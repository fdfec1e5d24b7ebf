package devserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"teo-client-go/internal/models"
	"teo-client-go/internal/store"
)

const (
	DemoTeacherId    = "teacher-demo"
	demoTeacherName  = "Demo Teacher"
	demoTeacherEmail = "teacher@teo.local"
	demoOfferTTL     = 72 * time.Hour
)

type demoOffer struct {
	title, student, price, discount, teo string
	backfill                             bool
	// shares the decision of the previous offer
	shared bool
}

var demoOffers = []demoOffer{
	{title: "Algebra I", student: "Student A", price: "120", discount: "10", teo: "12.5", backfill: true},
	{title: "Algebra I", student: "Student A", price: "120", discount: "10", teo: "12.5", shared: true},
	{title: "Physics Lab", student: "Student B", price: "80", discount: "15", teo: "9"},
	{title: "Organic Chemistry", student: "Student C", price: "200", discount: "5", teo: "7.25", backfill: true},
}

// SeedResult names what SeedDemo created.
type SeedResult struct {
	UserId      string
	SnapshotIds []int64
}

// SeedDemo inserts a demo teacher with pending offers: one pair of snapshots
// sharing a decision, one snapshot with no decision yet, and one plain offer.
func SeedDemo(ctx context.Context, st store.BackendStore, now time.Time) (*SeedResult, error) {
	if _, err := st.GetUserById(ctx, DemoTeacherId); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		if _, err := st.CreateUser(ctx, DemoTeacherId, demoTeacherName, demoTeacherEmail); err != nil {
			return nil, fmt.Errorf("creating demo teacher: %w", err)
		}
	}

	result := &SeedResult{UserId: DemoTeacherId}
	var previous *models.SnapshotRecord
	for _, offer := range demoOffers {
		rec := models.SnapshotRecord{
			TeacherId:         DemoTeacherId,
			CourseTitle:       offer.title,
			StudentLabel:      offer.student,
			CoursePrice:       decimal.RequireFromString(offer.price),
			DiscountPct:       decimal.RequireFromString(offer.discount),
			CommissionRate:    decimal.RequireFromString("0.70"),
			StakingTier:       "bronze",
			OfferedTeacherTeo: decimal.RequireFromString(offer.teo),
			ExpiresAt:         now.Add(demoOfferTTL),
			CreatedAt:         now,
		}
		if offer.shared && previous != nil {
			rec.PendingDecisionId = previous.PendingDecisionId
		}

		snap, err := st.CreateSnapshot(ctx, rec)
		if err != nil {
			return nil, fmt.Errorf("creating demo snapshot %q: %w", offer.title, err)
		}
		if offer.backfill {
			if _, err := st.BackfillDecisions(ctx, DemoTeacherId, []int64{snap.Id}, now); err != nil {
				return nil, fmt.Errorf("backfilling demo snapshot %d: %w", snap.Id, err)
			}
			// reload to pick up the decision id
			listed, err := st.ListPendingSnapshots(ctx, DemoTeacherId, now)
			if err != nil {
				return nil, err
			}
			for i := range listed {
				if listed[i].Id == snap.Id {
					snap = &listed[i]
				}
			}
		}
		previous = snap
		result.SnapshotIds = append(result.SnapshotIds, snap.Id)
	}

	zap.L().Info("Seeded demo data",
		zap.String("user_id", DemoTeacherId),
		zap.Int("snapshots", len(result.SnapshotIds)))
	return result, nil
}
