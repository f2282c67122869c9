package strategy

import (
	"context"
	"fmt"
	"sort"

	"github.com/Sumatoshi-tech/prfang/pkg/changegraph"
)

// Confidence levels for dependency candidates. Connected components carry a
// real coupling signal; isolated singletons are weak claims.
const (
	dependencyComponentConfidence = 0.85
	dependencySingletonConfidence = 0.4
)

// Dependency groups files by connected components of the import-edge
// subgraph. Isolated files become singleton candidates.
type Dependency struct{}

// NewDependency creates the dependency-analysis strategy.
func NewDependency() *Dependency { return &Dependency{} }

// Name implements Strategy.
func (*Dependency) Name() string { return NameDependency }

// Priority implements Strategy.
func (*Dependency) Priority() int { return PriorityDependency }

// Propose computes connected components over import edges, treating edges as
// undirected for clustering. The optional language filter narrows which
// files participate; excluded files yield no candidate from this strategy.
func (d *Dependency) Propose(_ context.Context, graph *changegraph.Graph, cfg Config) ([]CandidateGroup, error) {
	if !cfg.Dependency.Enabled {
		return nil, nil
	}

	include := languageFilter(graph, cfg.Dependency.Languages)

	// Union-find over included paths.
	parent := make(map[string]string, len(include))
	for path := range include {
		parent[path] = path
	}

	var find func(string) string
	find = func(p string) string {
		if parent[p] != p {
			parent[p] = find(parent[p])
		}

		return parent[p]
	}

	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}

		// Smaller root wins for determinism.
		if rb < ra {
			ra, rb = rb, ra
		}

		parent[rb] = ra
	}

	for _, e := range graph.EdgesOfKind(changegraph.EdgeImport) {
		if _, okFrom := include[e.From]; !okFrom {
			continue
		}

		if _, okTo := include[e.To]; !okTo {
			continue
		}

		union(e.From, e.To)
	}

	components := make(map[string][]string)

	for _, path := range graph.Paths() {
		if _, ok := include[path]; !ok {
			continue
		}

		root := find(path)
		components[root] = append(components[root], path)
	}

	roots := make([]string, 0, len(components))
	for root := range components {
		roots = append(roots, root)
	}

	sort.Strings(roots)

	candidates := make([]CandidateGroup, 0, len(roots))

	for _, root := range roots {
		members := components[root]

		if len(members) == 1 {
			candidates = append(candidates, newCandidate(members, NameDependency, PriorityDependency,
				"isolated file with no import coupling", dependencySingletonConfidence))
			continue
		}

		rationale := fmt.Sprintf("import-connected component of %d files", len(members))
		candidates = append(candidates,
			newCandidate(members, NameDependency, PriorityDependency, rationale, dependencyComponentConfidence))
	}

	return candidates, nil
}

// languageFilter returns the set of paths the strategy considers.
func languageFilter(graph *changegraph.Graph, languages []string) map[string]struct{} {
	include := make(map[string]struct{}, graph.Len())

	if len(languages) == 0 {
		for _, path := range graph.Paths() {
			include[path] = struct{}{}
		}

		return include
	}

	allowed := make(map[string]struct{}, len(languages))
	for _, lang := range languages {
		allowed[lang] = struct{}{}
	}

	for _, path := range graph.Paths() {
		f, _ := graph.File(path)
		if _, ok := allowed[f.Language]; ok {
			include[path] = struct{}{}
		}
	}

	return include
}
