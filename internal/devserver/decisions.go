package devserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"teo-client-go/internal/models"
	"teo-client-go/internal/store"
)

var hundred = decimal.NewFromInt(100)

// listPending handles GET /api/discount-decisions/pending. The list is raw:
// several snapshots may share a decision and some may have none yet.
func (s *Server) listPending(c echo.Context) error {
	records, err := s.store.ListPendingSnapshots(c.Request().Context(), userOf(c), s.now())
	if err != nil {
		return internalError(c, "list_pending", err)
	}

	snapshots := make([]models.DiscountSnapshot, 0, len(records))
	for _, rec := range records {
		snapshots = append(snapshots, toSnapshot(rec))
	}
	return ok(c, "", snapshots)
}

// countPending handles GET /api/discount-decisions/pending/count. Only
// materialized decisions are counted.
func (s *Server) countPending(c echo.Context) error {
	count, err := s.store.CountPendingDecisions(c.Request().Context(), userOf(c), s.now())
	if err != nil {
		return internalError(c, "count_pending", err)
	}
	return ok(c, "", models.CountResponse{Count: count})
}

// backfill handles POST /api/discount-decisions/backfill
func (s *Server) backfill(c echo.Context) error {
	var req models.BackfillRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, models.CodeBadRequest, "Invalid request body")
	}
	if len(req.SnapshotIds) == 0 {
		return fail(c, http.StatusBadRequest, models.CodeBadRequest, "At least one snapshot id is required")
	}

	ids := make([]int64, 0, len(req.SnapshotIds))
	for _, id := range req.SnapshotIds {
		ids = append(ids, int64(id))
	}
	created, err := s.store.BackfillDecisions(c.Request().Context(), userOf(c), ids, s.now())
	if err != nil {
		return internalError(c, "backfill", err)
	}
	return ok(c, "", models.BackfillResult{Created: created})
}

// getDecision handles GET /api/discount-decisions/:id
func (s *Server) getDecision(c echo.Context) error {
	id, err := decisionParam(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, models.CodeBadRequest, "Invalid decision id")
	}

	rec, err := s.store.GetDecision(c.Request().Context(), userOf(c), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(c, http.StatusNotFound, models.CodeNotFound, "Decision not found")
		}
		return internalError(c, "get_decision", err)
	}
	return ok(c, "", toDecision(rec, s.now()))
}

func (s *Server) acceptDecision(c echo.Context) error {
	return s.decide(c, store.DecisionAccepted)
}

func (s *Server) declineDecision(c echo.Context) error {
	return s.decide(c, store.DecisionDeclined)
}

func (s *Server) decide(c echo.Context, verdict string) error {
	id, err := decisionParam(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, models.CodeBadRequest, "Invalid decision id")
	}

	now := s.now()
	rec, err := s.store.Decide(c.Request().Context(), userOf(c), id, verdict, now)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fail(c, http.StatusNotFound, models.CodeNotFound, "Decision not found")
	case errors.Is(err, store.ErrAlreadyDecided):
		return fail(c, http.StatusConflict, models.CodeAlreadyDecided, "This offer has already been decided")
	case errors.Is(err, store.ErrExpired):
		return fail(c, http.StatusConflict, models.CodeExpired, "This offer has expired")
	case err != nil:
		return internalError(c, "decide", err)
	}

	message := "Discount declined"
	if verdict == store.DecisionAccepted {
		message = "Discount accepted"
	}
	return ok(c, message, toDecision(rec, now))
}

func decisionParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func toSnapshot(rec models.SnapshotRecord) models.DiscountSnapshot {
	snap := models.DiscountSnapshot{
		ID:           models.SnapshotID(rec.Id),
		CourseTitle:  rec.CourseTitle,
		StudentLabel: rec.StudentLabel,
		TeacherTeo:   rec.TeacherTeo,
	}
	if rec.PendingDecisionId != nil {
		id := models.DecisionID(*rec.PendingDecisionId)
		snap.PendingDecisionID = &id
	}
	offered := rec.OfferedTeacherTeo
	snap.OfferedTeacherTeo = &offered
	return snap
}

// toDecision builds the client view. Earnings are projections from the
// snapshot terms: declining keeps the full-price commission, accepting trades
// the discount for the offered TEO.
func toDecision(rec *models.DecisionRecord, now time.Time) models.DiscountDecision {
	offered := rec.OfferedTeacherTeo
	d := models.DiscountDecision{
		ID:                    models.DecisionID(rec.Id),
		Decision:              models.DecisionState(rec.Decision),
		IsExpired:             rec.Decision == store.DecisionPending && !now.Before(rec.ExpiresAt),
		CourseTitle:           rec.CourseTitle,
		StudentLabel:          rec.StudentLabel,
		OfferedTeacherTeo:     &offered,
		FinalTeacherTeo:       rec.FinalTeacherTeo,
		CoursePrice:           rec.CoursePrice,
		DiscountPercentage:    rec.DiscountPct,
		TeacherCommissionRate: rec.CommissionRate,
		TeacherStakingTier:    rec.StakingTier,
	}

	discounted := rec.CoursePrice.Mul(hundred.Sub(rec.DiscountPct)).Div(hundred)
	d.EarningsIfAccepted = &models.Earnings{
		Fiat: discounted.Mul(rec.CommissionRate).Round(2),
		Teo:  offered,
	}
	d.EarningsIfDeclined = &models.Earnings{
		Fiat: rec.CoursePrice.Mul(rec.CommissionRate).Round(2),
		Teo:  decimal.Zero,
	}
	return d
}
