package extract

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/zainulabidin776/apodflow/internal/core/domain"
	redisclient "github.com/zainulabidin776/apodflow/internal/infra/redis"
	"github.com/zainulabidin776/apodflow/internal/infra/storage"
)

// Resolver supplies a record when the upstream is unreachable. A nil
// record with a nil error means "nothing here, try the next resolver".
type Resolver interface {
	Resolve(ctx context.Context) (*domain.Record, domain.Provenance, error)
}

// CacheResolver serves the last good record from Redis.
type CacheResolver struct {
	cache *redisclient.Cache
}

// NewCacheResolver creates a resolver backed by the Redis last-record cache.
func NewCacheResolver(cache *redisclient.Cache) *CacheResolver {
	return &CacheResolver{cache: cache}
}

func (r *CacheResolver) Resolve(ctx context.Context) (*domain.Record, domain.Provenance, error) {
	rec, err := r.cache.GetLast(ctx)
	if errors.Is(err, redisclient.ErrCacheMiss) {
		return nil, "", nil
	}
	if err != nil {
		// A broken cache must not block the rest of the chain.
		slog.Warn("Record cache unavailable, trying next resolver", "error", err)
		return nil, "", nil
	}
	return rec, domain.ProvenanceCached, nil
}

// HistoryResolver serves the most recent row from the CSV historical store.
type HistoryResolver struct {
	store storage.HistoryStore
}

// NewHistoryResolver creates a resolver backed by the flat-file history.
func NewHistoryResolver(store storage.HistoryStore) *HistoryResolver {
	return &HistoryResolver{store: store}
}

func (r *HistoryResolver) Resolve(ctx context.Context) (*domain.Record, domain.Provenance, error) {
	rec, err := r.store.Latest()
	if errors.Is(err, storage.ErrRecordNotFound) {
		return nil, "", nil
	}
	if err != nil {
		// An unreadable history file must not block the rest of the chain.
		slog.Warn("History store unavailable, trying next resolver", "error", err)
		return nil, "", nil
	}
	return rec, domain.ProvenanceCached, nil
}

// PlaceholderResolver synthesizes a record for today so the pipeline never
// halts. It terminates every fallback chain.
type PlaceholderResolver struct {
	now func() time.Time
}

// NewPlaceholderResolver creates the terminal resolver.
func NewPlaceholderResolver() *PlaceholderResolver {
	return &PlaceholderResolver{now: time.Now}
}

const (
	placeholderTitle       = "Data Unavailable"
	placeholderExplanation = "The upstream APOD API could not be reached and no historical record exists. This placeholder keeps the pipeline schedule intact."
)

func (r *PlaceholderResolver) Resolve(ctx context.Context) (*domain.Record, domain.Provenance, error) {
	now := r.now()
	return &domain.Record{
		Date:        now.Format(domain.DateLayout),
		Title:       placeholderTitle,
		MediaType:   domain.MediaTypeImage,
		Explanation: placeholderExplanation,
		Attribution: "NASA",
		RetrievedAt: now,
	}, domain.ProvenancePlaceholder, nil
}
