// Package changegraph builds the file-level dependency graph over a change
// set. Edges come from import resolution, directory proximity, and test
// naming conventions; the graph is the single input every grouping strategy
// works from.
package changegraph

import (
	"sort"

	"github.com/Sumatoshi-tech/prfang/pkg/changeset"
)

// EdgeKind identifies how an edge was derived.
type EdgeKind string

const (
	// EdgeImport links a file to a file it imports a symbol from or depends
	// on by path. Directed.
	EdgeImport EdgeKind = "import"
	// EdgeProximity links two files sharing a directory prefix. Undirected;
	// stored with From < To.
	EdgeProximity EdgeKind = "proximity"
	// EdgeTestOf links a test file to the file it covers. Directed test -> subject.
	EdgeTestOf EdgeKind = "test-of"
)

// Edge is a single dependency edge between two changed files.
// Weight is meaningful for proximity edges only.
type Edge struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Kind   EdgeKind `json:"kind"`
	Weight float64  `json:"weight,omitempty"`
}

// Graph holds the changed files and the derived edge set.
// Invariant: every edge endpoint exists in Files, and no two edges share the
// same (From, To, Kind) triple. Edges are sorted by (From, To, Kind) so a
// given input always yields the same graph.
type Graph struct {
	files map[string]changeset.ChangedFile
	edges []Edge

	// exporters maps a symbol to the sorted paths exporting it.
	exporters map[string][]string
}

// File returns the changed file for a path, if present.
func (g *Graph) File(path string) (changeset.ChangedFile, bool) {
	f, ok := g.files[path]
	return f, ok
}

// Files returns the changed files keyed by path. Callers must not mutate.
func (g *Graph) Files() map[string]changeset.ChangedFile {
	return g.files
}

// Paths returns all file paths in sorted order.
func (g *Graph) Paths() []string {
	paths := make([]string, 0, len(g.files))
	for p := range g.files {
		paths = append(paths, p)
	}

	sort.Strings(paths)

	return paths
}

// Edges returns the full sorted edge set. Callers must not mutate.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// EdgesOfKind returns the edges of a single kind, in graph order.
func (g *Graph) EdgesOfKind(kind EdgeKind) []Edge {
	var out []Edge

	for _, e := range g.edges {
		if e.Kind == kind {
			out = append(out, e)
		}
	}

	return out
}

// ImportsFrom returns the sorted targets of import edges leaving path.
func (g *Graph) ImportsFrom(path string) []string {
	var out []string

	for _, e := range g.edges {
		if e.Kind == EdgeImport && e.From == path {
			out = append(out, e.To)
		}
	}

	return out
}

// Exporters returns the sorted paths that export the given symbol.
func (g *Graph) Exporters(symbol string) []string {
	return g.exporters[symbol]
}

// TestedBy reports whether subject has an incoming test-of edge.
func (g *Graph) TestedBy(subject string) bool {
	for _, e := range g.edges {
		if e.Kind == EdgeTestOf && e.To == subject {
			return true
		}
	}

	return false
}

// Len returns the number of files in the graph.
func (g *Graph) Len() int {
	return len(g.files)
}
