package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/agrovision/farm-api/internal/core/domain"
)

// memoryAuditRepo collects inserted events in arrival order.
type memoryAuditRepo struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (r *memoryAuditRepo) Insert(_ context.Context, event *domain.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *memoryAuditRepo) ListByUser(_ context.Context, userID string, limit int64) ([]*domain.AuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.AuditEvent
	for i := range r.events {
		if r.events[i].UserID == userID {
			e := r.events[i]
			out = append(out, &e)
		}
	}
	return out, nil
}

func (r *memoryAuditRepo) snapshot() []domain.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuditEvent(nil), r.events...)
}

func waitForEvents(t *testing.T, repo *memoryAuditRepo, want int) []domain.AuditEvent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		events := repo.snapshot()
		if len(events) >= want {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events, have %d", want, len(repo.snapshot()))
	return nil
}

func TestDispatcher_PersistsEvents(t *testing.T) {
	repo := &memoryAuditRepo{}
	d := NewDispatcher(2, repo, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Record(domain.AuditEvent{UserID: "user_1", Action: domain.AuditLogin})
	d.Record(domain.AuditEvent{UserID: "user_2", Action: domain.AuditRegister, Detail: "self-service"})

	events := waitForEvents(t, repo, 2)
	seen := make(map[string]domain.AuditAction)
	for _, e := range events {
		seen[e.UserID] = e.Action
		if e.Timestamp.IsZero() {
			t.Fatalf("timestamp not stamped for %s", e.UserID)
		}
	}
	if seen["user_1"] != domain.AuditLogin || seen["user_2"] != domain.AuditRegister {
		t.Fatalf("unexpected events: %+v", seen)
	}
}

// Events for the same user land on the same shard, so they persist in the
// order they were recorded.
func TestDispatcher_PerUserOrdering(t *testing.T) {
	repo := &memoryAuditRepo{}
	d := NewDispatcher(4, repo, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	sequence := []domain.AuditAction{
		domain.AuditRegister,
		domain.AuditLogin,
		domain.AuditRefresh,
		domain.AuditLogout,
	}
	for _, action := range sequence {
		d.Record(domain.AuditEvent{UserID: "user_1", Action: action})
	}

	waitForEvents(t, repo, len(sequence))
	stored, err := repo.ListByUser(context.Background(), "user_1", 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(stored) != len(sequence) {
		t.Fatalf("expected %d events, got %d", len(sequence), len(stored))
	}
	for i, e := range stored {
		if e.Action != sequence[i] {
			t.Fatalf("event %d out of order: got %s, want %s", i, e.Action, sequence[i])
		}
	}
}

func TestDispatcher_ShardIsDeterministic(t *testing.T) {
	d := NewDispatcher(4, &memoryAuditRepo{}, zerolog.Nop())

	for _, id := range []string{"user_1", "user_2", "", "a-very-long-user-identifier"} {
		first := d.shardIndex(id)
		for i := 0; i < 10; i++ {
			if got := d.shardIndex(id); got != first {
				t.Fatalf("shard for %q not stable: %d vs %d", id, first, got)
			}
		}
		if first < 0 || first >= 4 {
			t.Fatalf("shard for %q out of range: %d", id, first)
		}
	}
}

func TestDispatcher_StopsOnContextCancel(t *testing.T) {
	repo := &memoryAuditRepo{}
	d := NewDispatcher(1, repo, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	d.Record(domain.AuditEvent{UserID: "user_1", Action: domain.AuditLogin})
	waitForEvents(t, repo, 1)

	cancel()
	// Give the worker a beat to observe cancellation, then confirm later
	// events stay queued instead of being persisted.
	time.Sleep(20 * time.Millisecond)
	d.Record(domain.AuditEvent{UserID: "user_1", Action: domain.AuditLogout})
	time.Sleep(50 * time.Millisecond)

	if got := len(repo.snapshot()); got != 1 {
		t.Fatalf("expected 1 persisted event after cancel, got %d", got)
	}
}
