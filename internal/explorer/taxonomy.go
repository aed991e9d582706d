package explorer

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/votemamu/web/internal/logging"
	"github.com/votemamu/web/internal/model"
)

// TaxonomyBackend lists the reference data behind the party and symbol
// filters.
type TaxonomyBackend interface {
	Parties(ctx context.Context) ([]model.Party, error)
	Symbols(ctx context.Context) ([]model.Symbol, error)
}

// TaxonomySource yields the current taxonomy snapshot.
type TaxonomySource interface {
	Taxonomy(ctx context.Context) Taxonomy
}

// FetchTaxonomy loads parties and symbols.  Either list degrades to empty
// on failure and the failure is logged.
func FetchTaxonomy(ctx context.Context, b TaxonomyBackend, log logging.Logger) Taxonomy {
	log = logging.OrNoOp(log)
	var t Taxonomy
	parties, err := b.Parties(ctx)
	if err != nil {
		log.Warn("explorer: parties unavailable", "error", err)
	} else {
		t.Parties = parties
	}
	symbols, err := b.Symbols(ctx)
	if err != nil {
		log.Warn("explorer: symbols unavailable", "error", err)
	} else {
		t.Symbols = symbols
	}
	return t
}

// TaxonomyCache keeps the last non-empty snapshot for a short time.  Parties
// and symbols change rarely, and every explorer render needs them.
type TaxonomyCache struct {
	backend TaxonomyBackend
	log     logging.Logger
	lru     *expirable.LRU[string, Taxonomy]
}

const taxonomyKey = "taxonomy"

// DefaultTaxonomyTTL bounds how stale filter options may get.
const DefaultTaxonomyTTL = time.Minute

func NewTaxonomyCache(b TaxonomyBackend, ttl time.Duration, log logging.Logger) *TaxonomyCache {
	if ttl <= 0 {
		ttl = DefaultTaxonomyTTL
	}
	return &TaxonomyCache{
		backend: b,
		log:     logging.OrNoOp(log),
		lru:     expirable.NewLRU[string, Taxonomy](1, nil, ttl),
	}
}

// Taxonomy returns the cached snapshot or fetches a new one.  Empty results
// are not cached so a backend hiccup heals on the next call.
func (c *TaxonomyCache) Taxonomy(ctx context.Context) Taxonomy {
	if t, ok := c.lru.Get(taxonomyKey); ok {
		return t
	}
	t := FetchTaxonomy(ctx, c.backend, c.log)
	if !t.Empty() {
		c.lru.Add(taxonomyKey, t)
	}
	return t
}

// Invalidate drops the cached snapshot, e.g. after an admin edit.
func (c *TaxonomyCache) Invalidate() { c.lru.Purge() }

type uncachedTaxonomy struct {
	backend TaxonomyBackend
	log     logging.Logger
}

func (u uncachedTaxonomy) Taxonomy(ctx context.Context) Taxonomy {
	return FetchTaxonomy(ctx, u.backend, u.log)
}
