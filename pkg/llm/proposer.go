// Package llm models the language-understanding service the semantic grouping
// strategy consults. The service is an injected capability so the engine is
// testable with a deterministic stub; retries and caching are generic
// decorators around any Proposer.
package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
)

// Sentinel errors for proposer implementations.
var (
	// ErrEmptyBatch indicates a proposal was requested for zero files.
	ErrEmptyBatch = errors.New("llm: batch must contain at least one file")
	// ErrMalformedResponse indicates the service returned an unparseable or
	// structurally invalid proposal.
	ErrMalformedResponse = errors.New("llm: malformed proposal response")
	// ErrServiceUnavailable wraps transport-level failures after retries.
	ErrServiceUnavailable = errors.New("llm: service unavailable")
)

// BatchFile is the per-file summary sent to the service. It carries enough
// signal for grouping without shipping file contents.
type BatchFile struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	Language string `json:"language,omitempty"`
	Added    int    `json:"added"`
	Removed  int    `json:"removed"`
}

// Batch is a bounded set of changed files submitted in one service call.
type Batch struct {
	Files []BatchFile
}

// Key returns a stable content hash of the batch, used as the cache key.
// The hash covers file identity and change summary so repeated runs over
// unchanged inputs hit the cache.
func (b Batch) Key() string {
	paths := make([]string, len(b.Files))
	byPath := make(map[string]BatchFile, len(b.Files))

	for i, f := range b.Files {
		paths[i] = f.Path
		byPath[f.Path] = f
	}

	sort.Strings(paths)

	h := sha256.New()

	for _, p := range paths {
		f := byPath[p]
		fmt.Fprintf(h, "%s|%s|%s|%d|%d\n", f.Path, f.Kind, f.Language, f.Added, f.Removed)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// ProposedGroup is one cluster in a service proposal.
type ProposedGroup struct {
	Files      []string `json:"files"`
	Rationale  string   `json:"rationale"`
	Confidence float64  `json:"confidence"`
}

// Proposal is the service's partition of a batch.
type Proposal struct {
	Groups []ProposedGroup `json:"groups"`
}

// Proposer is the capability the semantic strategy depends on: a function
// from batch to partition proposal.
type Proposer interface {
	ProposeGroups(ctx context.Context, batch Batch) (Proposal, error)
}

// ProposerFunc adapts a function to the Proposer interface.
type ProposerFunc func(ctx context.Context, batch Batch) (Proposal, error)

// ProposeGroups calls the underlying function.
func (f ProposerFunc) ProposeGroups(ctx context.Context, batch Batch) (Proposal, error) {
	return f(ctx, batch)
}

// validateProposal checks a parsed proposal against its batch: every proposed
// file must belong to the batch and confidences must be in [0,1]. Files the
// proposal leaves out are allowed; the caller treats them as unclaimed.
func validateProposal(p Proposal, batch Batch) error {
	inBatch := make(map[string]struct{}, len(batch.Files))
	for _, f := range batch.Files {
		inBatch[f.Path] = struct{}{}
	}

	for _, g := range p.Groups {
		if len(g.Files) == 0 {
			return fmt.Errorf("%w: empty group", ErrMalformedResponse)
		}

		if g.Confidence < 0 || g.Confidence > 1 {
			return fmt.Errorf("%w: confidence %v out of range", ErrMalformedResponse, g.Confidence)
		}

		for _, path := range g.Files {
			if _, ok := inBatch[path]; !ok {
				return fmt.Errorf("%w: file %q not in batch", ErrMalformedResponse, path)
			}
		}
	}

	return nil
}
