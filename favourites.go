package dragonball

import (
	"context"
	"sync"

	"github.com/goliatone/go-print"
)

// FavouriteSync tracks which characters the current session has marked
// favourite and keeps that display state reconciled with the remote store.
//
// Each view instance owns its own FavouriteSync; membership is re-derived by
// querying the server, never trusted to stay consistent across views. The
// set empties implicitly when the session ends because every call is gated
// on the session being authenticated.
type FavouriteSync struct {
	api     *APIClient
	session *SessionManager
	logger  Logger

	mu       sync.Mutex
	members  map[int64]struct{}
	inflight map[int64]struct{}
}

func NewFavouriteSync(api *APIClient, session *SessionManager) *FavouriteSync {
	return &FavouriteSync{
		api:      api,
		session:  session,
		logger:   defLogger{},
		members:  map[int64]struct{}{},
		inflight: map[int64]struct{}{},
	}
}

func (f *FavouriteSync) WithLogger(logger Logger) *FavouriteSync {
	f.logger = logger
	return f
}

// LoadAll queries the remote favourites collection for the current session.
// Absence of favourites is a safe display default, so every failure degrades
// silently to the empty set and is only logged. A load whose context was
// cancelled before it settled is discarded without touching local state.
func (f *FavouriteSync) LoadAll(ctx context.Context) map[int64]struct{} {
	if !f.session.Current().IsAuthenticated {
		// Membership is keyed by session; none means an empty set.
		f.replace(map[int64]struct{}{})
		return map[int64]struct{}{}
	}

	summaries, err := f.api.FetchFavourites(ctx)
	if err != nil {
		f.logger.Error("failed to load favourites: %v", err)
		// A load that died with its owning view must not touch the
		// disposed view's state.
		if ctx.Err() == nil {
			f.replace(map[int64]struct{}{})
		}
		return map[int64]struct{}{}
	}

	members := make(map[int64]struct{}, len(summaries))
	for _, summary := range summaries {
		if summary.ID >= 0 {
			members[summary.ID] = struct{}{}
		}
	}

	if ctx.Err() != nil {
		// The owning view is gone; do not apply the late result.
		return copySet(members)
	}

	f.replace(members)
	f.logger.Debug("favourites loaded: %s", print.MaybePrettyJSON(keys(members)))
	return copySet(members)
}

// IsMember tests membership against the most recently loaded set.
func (f *FavouriteSync) IsMember(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.members[id]
	return ok
}

// Toggle flips the remote favourite membership for id: add when absent,
// remove when present. The remote mutation settles first; the local flag only
// changes after a confirmed success, so a failure never leaves membership
// partially applied.
//
// A negative id or an unauthenticated session makes Toggle a silent no-op
// with zero network calls. A toggle for an id that already has a call
// outstanding returns ErrToggleInFlight instead of racing it.
func (f *FavouriteSync) Toggle(ctx context.Context, id int64) error {
	if id < 0 {
		return nil
	}
	if !f.session.Current().IsAuthenticated {
		return nil
	}

	f.mu.Lock()
	if _, busy := f.inflight[id]; busy {
		f.mu.Unlock()
		return ErrToggleInFlight
	}
	f.inflight[id] = struct{}{}
	_, present := f.members[id]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		delete(f.inflight, id)
		f.mu.Unlock()
	}()

	var err error
	if present {
		err = f.api.RemoveFavourite(ctx, id)
	} else {
		err = f.api.AddFavourite(ctx, id)
	}
	if err != nil {
		f.logger.Error("favourite toggle failed for id=%d: %v", id, err)
		return err
	}

	if ctx.Err() != nil {
		// Confirmed remotely, but the owning view is gone; leave local
		// state for the next LoadAll to reconcile.
		return nil
	}

	f.mu.Lock()
	if present {
		delete(f.members, id)
	} else {
		f.members[id] = struct{}{}
	}
	f.mu.Unlock()

	return nil
}

func (f *FavouriteSync) replace(members map[int64]struct{}) {
	f.mu.Lock()
	f.members = members
	f.mu.Unlock()
}

func copySet(src map[int64]struct{}) map[int64]struct{} {
	dst := make(map[int64]struct{}, len(src))
	for id := range src {
		dst[id] = struct{}{}
	}
	return dst
}

func keys(src map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(src))
	for id := range src {
		ids = append(ids, id)
	}
	return ids
}
