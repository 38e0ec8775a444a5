package calendar

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alexanderramin/pointer/internal/domain"
)

// ErrSyncInFlight means a sync was requested while another one was still
// running. The caller should simply try again later; the running sync
// covers the same data.
var ErrSyncInFlight = errors.New("calendar sync already in flight")

// Provider is the remote calendar surface the reconciler needs.
type Provider interface {
	ListEvents(ctx context.Context, accessToken string) ([]RemoteEvent, error)
	CreateEvent(ctx context.Context, accessToken string, ev domain.CalendarEvent) (string, error)
	UpdateEvent(ctx context.Context, accessToken, remoteID string, ev domain.CalendarEvent) (bool, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// EventStore loads and replaces the persisted event list.
type EventStore interface {
	Events(ctx context.Context) ([]domain.CalendarEvent, error)
	ReplaceEvents(ctx context.Context, events []domain.CalendarEvent, syncedAt time.Time) error
}

// Reconciler merges the local event list with the remote calendar. At
// most one sync runs at a time; overlapping triggers are rejected with
// ErrSyncInFlight instead of queueing.
type Reconciler struct {
	provider Provider
	events   EventStore
	log      *zap.Logger

	mu sync.Mutex
}

// NewReconciler wires a reconciler over a provider and the event store.
func NewReconciler(provider Provider, events EventStore, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{provider: provider, events: events, log: log}
}

// Sync runs one full reconciliation pass and returns the merged list:
//
//  1. Fetch the remote window. On failure, refresh the access token
//     exactly once and retry; without a refresh token, or when the
//     refresh or retry fails, the pass aborts with ErrAuthRequired.
//  2. Merge: every local event in stored order, then every remote event
//     not referenced by a local event's remote id, in provider order.
//     At most one record per remote id survives.
//  3. Create remote counterparts for local events that have no remote id
//     and did not originate remotely, concurrently. Returned ids are
//     attached best-effort; individual failures are logged and skipped.
//  4. Persist the merged list and the sync timestamp.
func (r *Reconciler) Sync(ctx context.Context, tokens Tokens) ([]domain.CalendarEvent, error) {
	if !r.mu.TryLock() {
		return nil, ErrSyncInFlight
	}
	defer r.mu.Unlock()

	if tokens.AccessToken == "" {
		return nil, ErrAuthRequired
	}

	local, err := r.events.Events(ctx)
	if err != nil {
		return nil, err
	}

	remote, accessToken, err := r.fetchRemote(ctx, tokens)
	if err != nil {
		return nil, err
	}

	merged := mergeEvents(local, remote)
	r.createMissingRemote(ctx, accessToken, merged)

	if err := r.events.ReplaceEvents(ctx, merged, time.Now()); err != nil {
		return nil, err
	}

	r.log.Info("calendar sync complete",
		zap.Int("local", len(local)),
		zap.Int("remote", len(remote)),
		zap.Int("merged", len(merged)))
	return merged, nil
}

// fetchRemote lists remote events, refreshing the access token at most
// once. It returns the access token that ended up working so later
// create calls reuse it.
func (r *Reconciler) fetchRemote(ctx context.Context, tokens Tokens) ([]RemoteEvent, string, error) {
	remote, err := r.provider.ListEvents(ctx, tokens.AccessToken)
	if err == nil {
		return remote, tokens.AccessToken, nil
	}

	if tokens.RefreshToken == "" {
		r.log.Warn("remote fetch failed with no refresh token", zap.Error(err))
		return nil, "", ErrAuthRequired
	}

	refreshed, rerr := r.provider.Refresh(ctx, tokens.RefreshToken)
	if rerr != nil {
		r.log.Warn("access token refresh failed", zap.Error(rerr))
		return nil, "", ErrAuthRequired
	}

	remote, err = r.provider.ListEvents(ctx, refreshed)
	if err != nil {
		r.log.Warn("remote fetch failed after refresh", zap.Error(err))
		return nil, "", ErrAuthRequired
	}
	return remote, refreshed, nil
}

// mergeEvents keeps every local event and appends the remote events no
// local event already references.
func mergeEvents(local []domain.CalendarEvent, remote []RemoteEvent) []domain.CalendarEvent {
	referenced := make(map[string]bool, len(local))
	merged := make([]domain.CalendarEvent, 0, len(local)+len(remote))

	for _, ev := range local {
		if ev.RemoteID != "" {
			referenced[ev.RemoteID] = true
		}
		merged = append(merged, ev)
	}
	for _, re := range remote {
		if !referenced[re.ID] {
			merged = append(merged, ToLocal(re))
		}
	}
	return merged
}

// createMissingRemote fans out one create call per local-origin event
// without a remote counterpart and attaches the returned ids in place.
func (r *Reconciler) createMissingRemote(ctx context.Context, accessToken string, merged []domain.CalendarEvent) {
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i := range merged {
		ev := merged[i]
		if ev.RemoteID != "" || ev.Remote {
			continue
		}

		wg.Add(1)
		go func(i int, ev domain.CalendarEvent) {
			defer wg.Done()
			remoteID, err := r.provider.CreateEvent(ctx, accessToken, ev)
			if err != nil {
				r.log.Warn("creating remote event failed",
					zap.String("event_id", ev.ID), zap.Error(err))
				return
			}
			mu.Lock()
			merged[i].RemoteID = remoteID
			mu.Unlock()
		}(i, ev)
	}
	wg.Wait()
}

// PropagateUpdate pushes an edited event to its remote counterpart.
// Best-effort: failures are logged, never surfaced, and events without a
// remote id are ignored.
func (r *Reconciler) PropagateUpdate(ctx context.Context, tokens Tokens, ev domain.CalendarEvent) {
	if ev.RemoteID == "" || tokens.AccessToken == "" {
		return
	}
	ok, err := r.provider.UpdateEvent(ctx, tokens.AccessToken, ev.RemoteID, ev)
	if err != nil {
		r.log.Warn("updating remote event failed",
			zap.String("event_id", ev.ID), zap.Error(err))
		return
	}
	if !ok {
		r.log.Warn("remote event update rejected", zap.String("event_id", ev.ID))
	}
}
