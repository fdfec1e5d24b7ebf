package discount

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/shopspring/decimal"

	"teo-client-go/internal/backend"
	"teo-client-go/internal/models"
)

type fakeBackend struct {
	mu sync.Mutex

	decisions  map[models.DecisionID]*models.DiscountDecision
	getErr     map[models.DecisionID]error
	snapshots  []models.DiscountSnapshot
	backfilled []models.DiscountSnapshot // listed after a successful backfill, when set
	listErr    error
	count      int
	countErr   error

	backfillErr error
	actionErr   error
	onAction    func(f *fakeBackend, id models.DecisionID, verdict Verdict)

	calls []string
	didBF bool
}

var _ Backend = (*fakeBackend)(nil)

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		decisions: make(map[models.DecisionID]*models.DiscountDecision),
		getErr:    make(map[models.DecisionID]error),
	}
}

func (f *fakeBackend) record(format string, args ...interface{}) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func notFound(id models.DecisionID) error {
	return fmt.Errorf("getting decision %d: %w", id, &backend.APIError{
		StatusCode: http.StatusNotFound,
		Code:       models.CodeNotFound,
		Message:    "Decision not found",
	})
}

func (f *fakeBackend) GetDecision(_ context.Context, id models.DecisionID) (*models.DiscountDecision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("get:%d", id)
	if err := f.getErr[id]; err != nil {
		return nil, err
	}
	d, ok := f.decisions[id]
	if !ok {
		return nil, notFound(id)
	}
	cp := *d
	return &cp, nil
}

func (f *fakeBackend) ListPendingSnapshots(context.Context) ([]models.DiscountSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.didBF && f.backfilled != nil {
		return append([]models.DiscountSnapshot(nil), f.backfilled...), nil
	}
	return append([]models.DiscountSnapshot(nil), f.snapshots...), nil
}

func (f *fakeBackend) PendingCount(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("count")
	return f.count, f.countErr
}

func (f *fakeBackend) BackfillDecisions(_ context.Context, ids []models.SnapshotID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("backfill:%v", ids)
	if f.backfillErr != nil {
		return f.backfillErr
	}
	f.didBF = true
	return nil
}

func (f *fakeBackend) AcceptDecision(_ context.Context, id models.DecisionID) (*models.DiscountDecision, error) {
	return f.decide(id, VerdictAccept)
}

func (f *fakeBackend) DeclineDecision(_ context.Context, id models.DecisionID) (*models.DiscountDecision, error) {
	return f.decide(id, VerdictDecline)
}

func (f *fakeBackend) decide(id models.DecisionID, v Verdict) (*models.DiscountDecision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("%s:%d", v, id)
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	if f.onAction != nil {
		f.onAction(f, id, v)
	}
	d := f.decisions[id]
	if d == nil {
		return nil, notFound(id)
	}
	cp := *d
	return &cp, nil
}

func (f *fakeBackend) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func did(id int64) *models.DecisionID {
	d := models.DecisionID(id)
	return &d
}

func teo(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

var errBoom = errors.New("boom")
