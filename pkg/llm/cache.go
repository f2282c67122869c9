package llm

import (
	"context"
	"sync"
	"sync/atomic"
)

// ProposalCache memoizes service proposals by batch content hash. It is
// shared across concurrent runs within the process lifetime; the only write
// semantics it needs is insert-if-absent, so a single RWMutex suffices.
type ProposalCache struct {
	mu      sync.RWMutex
	entries map[string]Proposal

	hits   atomic.Int64
	misses atomic.Int64
}

// NewProposalCache creates an empty proposal cache.
func NewProposalCache() *ProposalCache {
	return &ProposalCache{
		entries: make(map[string]Proposal),
	}
}

// Get returns the cached proposal for a batch key.
func (c *ProposalCache) Get(key string) (Proposal, bool) {
	c.mu.RLock()
	p, ok := c.entries[key]
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}

	return p, ok
}

// Insert stores a proposal unless the key is already present. The first
// writer wins; concurrent runs computing the same batch agree on one result.
func (c *ProposalCache) Insert(key string, p Proposal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		return
	}

	c.entries[key] = p
}

// Len returns the number of cached proposals.
func (c *ProposalCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Stats returns cumulative hit and miss counts.
func (c *ProposalCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// WithCache wraps a Proposer with ProposalCache lookups keyed by batch
// content hash. Service calls are skipped entirely on a hit.
func WithCache(inner Proposer, cache *ProposalCache) Proposer {
	if cache == nil {
		return inner
	}

	return ProposerFunc(func(ctx context.Context, batch Batch) (Proposal, error) {
		key := batch.Key()

		if cached, ok := cache.Get(key); ok {
			return cached, nil
		}

		proposal, err := inner.ProposeGroups(ctx, batch)
		if err != nil {
			return Proposal{}, err
		}

		cache.Insert(key, proposal)

		return proposal, nil
	})
}
