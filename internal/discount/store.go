package discount

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"teo-client-go/internal/events"
	"teo-client-go/internal/models"
	"teo-client-go/internal/retry"
)

// Badge is the pending-decision count shown to the user.
type Badge struct {
	Count int
	// Changed is true when the pending set differs from the previous refresh
	// even though the count endpoint reported the same number.
	Changed bool
}

// SnapshotStore reads the pending-offer list and the badge count.
type SnapshotStore struct {
	backend Backend
	retry   retry.Policy

	mu        sync.Mutex
	haveCount bool
	lastCount int
	lastSet   map[string]struct{}
}

func NewSnapshotStore(b Backend, p retry.Policy) *SnapshotStore {
	return &SnapshotStore{backend: b, retry: p}
}

// List returns the pending snapshots, deduplicated by decision id.
func (s *SnapshotStore) List(ctx context.Context) ([]models.DiscountSnapshot, error) {
	raw, err := s.listRaw(ctx)
	if err != nil {
		return nil, err
	}
	list := Dedupe(raw)

	s.mu.Lock()
	s.lastSet = keysOf(list)
	s.mu.Unlock()

	return list, nil
}

func (s *SnapshotStore) listRaw(ctx context.Context) ([]models.DiscountSnapshot, error) {
	raw, err := retry.Do(ctx, s.retry, "list_pending_snapshots", s.backend.ListPendingSnapshots)
	if err != nil {
		return nil, fmt.Errorf("listing pending snapshots: %w", err)
	}
	return raw, nil
}

// Count queries the dedicated count endpoint.
func (s *SnapshotStore) Count(ctx context.Context) (int, error) {
	n, err := retry.Do(ctx, s.retry, "pending_count", s.backend.PendingCount)
	if err != nil {
		return 0, fmt.Errorf("getting pending count: %w", err)
	}
	return n, nil
}

// Refresh recomputes the badge. When the count is unchanged since the last
// refresh it also re-lists, because one offer may have resolved while another
// arrived; the deduplicated length then becomes the badge count.
func (s *SnapshotStore) Refresh(ctx context.Context) (Badge, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return Badge{}, err
	}

	s.mu.Lock()
	unchanged := s.haveCount && n == s.lastCount
	s.haveCount = true
	s.lastCount = n
	prevSet := s.lastSet
	if !unchanged {
		// sets are only compared between refreshes at the same count
		s.lastSet = nil
	}
	s.mu.Unlock()

	if !unchanged {
		return Badge{Count: n}, nil
	}

	list, err := s.List(ctx)
	if err != nil {
		zap.L().Warn("Pending list check failed, keeping count", zap.Int("count", n), zap.Error(err))
		return Badge{Count: n}, nil
	}

	badge := Badge{Count: len(list)}
	if prevSet != nil {
		badge.Changed = !sameSet(prevSet, keysOf(list))
	}
	if badge.Changed {
		zap.L().Debug("Pending set changed at constant count", zap.Int("count", badge.Count))
	}
	return badge, nil
}

// Bind refreshes the badge on every notifications:updated event and hands the
// result to onBadge. The returned function unsubscribes.
func (s *SnapshotStore) Bind(ctx context.Context, bus *events.Bus, onBadge func(Badge, error)) func() {
	return bus.OnNotificationsUpdated(func(events.NotificationsUpdated) {
		badge, err := s.Refresh(ctx)
		if onBadge != nil {
			onBadge(badge, err)
		}
	})
}

func keysOf(list []models.DiscountSnapshot) map[string]struct{} {
	keys := make(map[string]struct{}, len(list))
	for _, snap := range list {
		keys[setKey(snap)] = struct{}{}
	}
	return keys
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
