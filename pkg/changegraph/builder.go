package changegraph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Sumatoshi-tech/prfang/pkg/changeset"
)

// DefaultProximityDepth is the default directory depth considered when
// deriving proximity edges.
const DefaultProximityDepth = 3

// Options control graph construction.
type Options struct {
	// ProximityDepth bounds how many leading path segments contribute to
	// proximity edges. Zero uses DefaultProximityDepth; negative disables
	// proximity edges entirely.
	ProximityDepth int
}

// Build constructs a Graph from a validated change set.
// Input records must pass changeset.ValidateFiles; Build re-checks and wraps
// any violation so the graph invariants hold unconditionally.
func Build(files []changeset.ChangedFile, opts Options) (*Graph, error) {
	err := changeset.ValidateFiles(files)
	if err != nil {
		return nil, fmt.Errorf("build change graph: %w", err)
	}

	depth := opts.ProximityDepth
	if depth == 0 {
		depth = DefaultProximityDepth
	}

	g := &Graph{
		files:     make(map[string]changeset.ChangedFile, len(files)),
		exporters: make(map[string][]string),
	}

	for _, f := range files {
		g.files[f.Path] = f

		for _, sym := range f.Exports {
			g.exporters[sym] = append(g.exporters[sym], f.Path)
		}
	}

	for sym := range g.exporters {
		sort.Strings(g.exporters[sym])
	}

	seen := make(map[Edge]struct{})

	addEdge := func(e Edge) {
		key := Edge{From: e.From, To: e.To, Kind: e.Kind}
		if _, dup := seen[key]; dup {
			return
		}

		seen[key] = struct{}{}
		g.edges = append(g.edges, e)
	}

	for _, f := range files {
		addImportEdges(g, f, addEdge)
		addTestOfEdges(g, f, addEdge)
	}

	if depth > 0 {
		addProximityEdges(g, files, depth, addEdge)
	}

	sort.Slice(g.edges, func(i, j int) bool {
		a, b := g.edges[i], g.edges[j]
		if a.From != b.From {
			return a.From < b.From
		}

		if a.To != b.To {
			return a.To < b.To
		}

		return a.Kind < b.Kind
	})

	return g, nil
}

// addImportEdges derives import edges from symbol imports and declared path
// dependencies. Imports of symbols no changed file exports are external and
// produce no edge.
func addImportEdges(g *Graph, f changeset.ChangedFile, add func(Edge)) {
	for _, sym := range f.Imports {
		for _, target := range g.exporters[sym] {
			if target == f.Path {
				continue
			}

			add(Edge{From: f.Path, To: target, Kind: EdgeImport})
		}
	}

	for _, dep := range f.DependsOn {
		if dep == f.Path {
			continue
		}

		if _, ok := g.files[dep]; !ok {
			continue
		}

		add(Edge{From: f.Path, To: dep, Kind: EdgeImport})
	}
}

// addTestOfEdges links test files to their subjects by naming convention.
// A test whose subject is absent from the change set produces no edge.
func addTestOfEdges(g *Graph, f changeset.ChangedFile, add func(Edge)) {
	if !f.IsTest() {
		return
	}

	for _, subject := range changeset.TestSubjects(f.Path) {
		if _, ok := g.files[subject]; !ok {
			continue
		}

		add(Edge{From: f.Path, To: subject, Kind: EdgeTestOf})
	}
}

// addProximityEdges links files sharing a directory prefix, weighted by the
// fraction of shared leading segments. Files in unrelated trees get no edge.
func addProximityEdges(g *Graph, files []changeset.ChangedFile, depth int, add func(Edge)) {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}

	sort.Strings(paths)

	for i := 0; i < len(paths); i++ {
		for j := i + 1; j < len(paths); j++ {
			weight := proximityWeight(paths[i], paths[j], depth)
			if weight <= 0 {
				continue
			}

			add(Edge{From: paths[i], To: paths[j], Kind: EdgeProximity, Weight: weight})
		}
	}
}

// proximityWeight returns shared leading directory segments over the larger
// directory depth of the pair, considering at most maxDepth segments.
func proximityWeight(a, b string, maxDepth int) float64 {
	segsA := dirSegments(a)
	segsB := dirSegments(b)

	if len(segsA) == 0 && len(segsB) == 0 {
		// Both at repository root: weakly related.
		return 1.0 / float64(maxDepth)
	}

	shared := 0
	for shared < len(segsA) && shared < len(segsB) && shared < maxDepth {
		if segsA[shared] != segsB[shared] {
			break
		}

		shared++
	}

	if shared == 0 {
		return 0
	}

	denom := max(len(segsA), len(segsB))
	if denom > maxDepth {
		denom = maxDepth
	}

	return float64(shared) / float64(denom)
}

func dirSegments(p string) []string {
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return nil
	}

	return strings.Split(p[:idx], "/")
}
