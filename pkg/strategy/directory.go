package strategy

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Sumatoshi-tech/prfang/pkg/changegraph"
)

// rootPrefix labels files that live at the repository root.
const rootPrefix = "(root)"

// directoryConfidence is the fixed confidence of directory candidates:
// path layout is a decent but not strong grouping signal.
const directoryConfidence = 0.6

// Directory groups files by common path prefix up to a configured depth.
// Deterministic, no external calls.
type Directory struct{}

// NewDirectory creates the directory-based strategy.
func NewDirectory() *Directory { return &Directory{} }

// Name implements Strategy.
func (*Directory) Name() string { return NameDirectory }

// Priority implements Strategy.
func (*Directory) Priority() int { return PriorityDirectory }

// Propose groups every file by its directory prefix truncated to MaxDepth
// segments, then merges directories holding fewer than MinFilesPerDir files
// into their parent prefix.
func (d *Directory) Propose(_ context.Context, graph *changegraph.Graph, cfg Config) ([]CandidateGroup, error) {
	if !cfg.Directory.Enabled {
		return nil, nil
	}

	maxDepth := cfg.Directory.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultDirectoryMaxDepth
	}

	byPrefix := make(map[string][]string)

	for _, path := range graph.Paths() {
		byPrefix[prefixAtDepth(path, maxDepth)] = append(byPrefix[prefixAtDepth(path, maxDepth)], path)
	}

	mergeSmallPrefixes(byPrefix, cfg.Directory.MinFilesPerDir)

	prefixes := make([]string, 0, len(byPrefix))
	for prefix := range byPrefix {
		prefixes = append(prefixes, prefix)
	}

	sort.Strings(prefixes)

	candidates := make([]CandidateGroup, 0, len(prefixes))

	for _, prefix := range prefixes {
		rationale := fmt.Sprintf("changes focused within %q", prefix)
		candidates = append(candidates,
			newCandidate(byPrefix[prefix], NameDirectory, PriorityDirectory, rationale, directoryConfidence))
	}

	return candidates, nil
}

// prefixAtDepth returns the first depth directory segments of a path, or
// rootPrefix for files without a directory.
func prefixAtDepth(path string, depth int) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return rootPrefix
	}

	segments := strings.Split(path[:idx], "/")
	if len(segments) > depth {
		segments = segments[:depth]
	}

	return strings.Join(segments, "/")
}

// mergeSmallPrefixes folds prefixes holding fewer than minFiles files into
// their parent prefix, repeatedly, until every surviving prefix is either
// large enough or has no parent left to fold into.
func mergeSmallPrefixes(byPrefix map[string][]string, minFiles int) {
	if minFiles <= 1 {
		return
	}

	for {
		merged := false

		prefixes := make([]string, 0, len(byPrefix))
		for prefix := range byPrefix {
			prefixes = append(prefixes, prefix)
		}

		// Deepest first so children fold before their parents are judged.
		sort.Slice(prefixes, func(i, j int) bool {
			di, dj := strings.Count(prefixes[i], "/"), strings.Count(prefixes[j], "/")
			if di != dj {
				return di > dj
			}

			return prefixes[i] < prefixes[j]
		})

		for _, prefix := range prefixes {
			if len(byPrefix[prefix]) >= minFiles || prefix == rootPrefix {
				continue
			}

			parent := parentPrefix(prefix)

			byPrefix[parent] = append(byPrefix[parent], byPrefix[prefix]...)
			delete(byPrefix, prefix)

			merged = true
		}

		if !merged {
			return
		}
	}
}

func parentPrefix(prefix string) string {
	idx := strings.LastIndex(prefix, "/")
	if idx < 0 {
		return rootPrefix
	}

	return prefix[:idx]
}
