package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/counselhub/counselhub/internal/backend"
	"github.com/counselhub/counselhub/internal/log"
	"github.com/counselhub/counselhub/internal/pkg/xcontext"
)

// LoadFunc fetches the value for one key from the remote collaborator.
type LoadFunc func(ctx context.Context) (any, error)

// ServeOutcome classifies how a read was satisfied.
type ServeOutcome string

const (
	// ServeFresh means the store held a fresh entry.
	ServeFresh ServeOutcome = "fresh"
	// ServeStale means a retained value was served while a refresh runs.
	ServeStale ServeOutcome = "stale"
	// ServeLoaded means the read blocked on a remote load.
	ServeLoaded ServeOutcome = "loaded"
	// ServeNegative means a recent not-found suppressed the load.
	ServeNegative ServeOutcome = "negative"
	// ServeError means the remote load failed.
	ServeError ServeOutcome = "error"
)

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	Store *Store

	// NegativeTTL is how long a not-found result suppresses reloads.
	// Defaults to 5s.
	NegativeTTL time.Duration

	// NegativeSize bounds the negative-result cache. Defaults to 256.
	NegativeSize int

	// RefreshTimeout bounds each background revalidation. Defaults to 30s.
	RefreshTimeout time.Duration

	// OnServe observes how each read was satisfied. May be nil.
	OnServe func(ctx context.Context, key Key, outcome ServeOutcome)
}

// Fetcher is the read-through path of the engine and the only place a read
// touches the network. Fresh entries are served directly; stale entries are
// served immediately while a background revalidation runs; absent entries
// block on a singleflight-deduplicated load. Not-found results are held in a
// bounded negative cache so repeated misses do not hammer the backend.
type Fetcher struct {
	store *Store
	sf    singleflight.Group

	negative    *lru.Cache[Key, negativeEntry]
	negativeTTL time.Duration

	refreshTimeout time.Duration

	onServe func(ctx context.Context, key Key, outcome ServeOutcome)
}

type negativeEntry struct {
	err      error
	expireAt time.Time
}

func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.Store == nil {
		panic("cache.Fetcher: Store is required")
	}

	negativeTTL := opts.NegativeTTL
	if negativeTTL == 0 {
		negativeTTL = 5 * time.Second
	}

	negativeSize := opts.NegativeSize
	if negativeSize <= 0 {
		negativeSize = 256
	}

	refreshTimeout := opts.RefreshTimeout
	if refreshTimeout == 0 {
		refreshTimeout = 30 * time.Second
	}

	negative, err := lru.New[Key, negativeEntry](negativeSize)
	if err != nil {
		panic(err)
	}

	return &Fetcher{
		store:          opts.Store,
		negative:       negative,
		negativeTTL:    negativeTTL,
		refreshTimeout: refreshTimeout,
		onServe:        opts.OnServe,
	}
}

// Fetch returns the value for key, loading it through load when the store
// cannot serve it. A stale or refreshing entry returns its retained value
// synchronously, never blocking and never reading as absent.
func (f *Fetcher) Fetch(ctx context.Context, key Key, load LoadFunc) (any, error) {
	entry := f.store.Get(key)

	switch entry.Status {
	case StatusFresh:
		f.observe(ctx, key, ServeFresh)
		return entry.Value, nil

	case StatusStale:
		f.revalidate(ctx, key, load)
		f.observe(ctx, key, ServeStale)
		return entry.Value, nil

	case StatusFetching:
		if entry.HasValue() {
			// A revalidation is in flight; the previous value stays servable.
			f.observe(ctx, key, ServeStale)
			return entry.Value, nil
		}

	default: // StatusAbsent, StatusError
		if neg, ok := f.negative.Get(key); ok {
			if time.Now().Before(neg.expireAt) {
				f.observe(ctx, key, ServeNegative)
				return nil, neg.err
			}

			f.negative.Remove(key)
		}
	}

	value, err := f.load(ctx, key, load)
	if err != nil {
		f.observe(ctx, key, ServeError)
		return nil, err
	}

	f.observe(ctx, key, ServeLoaded)
	return value, nil
}

func (f *Fetcher) observe(ctx context.Context, key Key, outcome ServeOutcome) {
	if f.onServe != nil {
		f.onServe(ctx, key, outcome)
	}
}

// load runs the remote read once per key across concurrent callers.
func (f *Fetcher) load(ctx context.Context, key Key, load LoadFunc) (any, error) {
	value, err, shared := f.sf.Do(key.String(), func() (any, error) {
		// Another flight may have settled while we queued.
		if entry := f.store.Get(key); entry.Status == StatusFresh {
			return entry.Value, nil
		}

		f.store.MarkFetching(key)

		value, err := load(ctx)
		if err != nil {
			f.store.SetError(key, err)

			if backend.IsNotFound(err) {
				f.negative.Add(key, negativeEntry{err: err, expireAt: time.Now().Add(f.negativeTTL)})
			}

			return nil, err
		}

		f.store.Set(key, value)
		f.negative.Remove(key)

		return value, nil
	})

	if shared {
		log.Debug(ctx, "cache load deduplicated", log.String("key", key.String()))
	}

	if err != nil {
		return nil, err
	}

	return value, nil
}

// revalidate kicks a background refresh for a stale key. The load is
// detached from the caller's cancellation and bounded by RefreshTimeout;
// concurrent kicks collapse into one flight.
func (f *Fetcher) revalidate(ctx context.Context, key Key, load LoadFunc) {
	detached := xcontext.Detach(ctx)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error(detached, "cache revalidation panicked",
					log.String("key", key.String()),
					log.Any("panic", r))
			}
		}()

		rctx, cancel := context.WithTimeout(detached, f.refreshTimeout)
		defer cancel()

		if _, err := f.load(rctx, key, load); err != nil {
			log.Warn(rctx, "cache revalidation failed",
				log.String("key", key.String()),
				log.Cause(err))
		}
	}()
}
