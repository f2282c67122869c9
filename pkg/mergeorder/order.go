package mergeorder

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Sumatoshi-tech/prfang/pkg/changegraph"
	"github.com/Sumatoshi-tech/prfang/pkg/feasibility"
	"github.com/Sumatoshi-tech/prfang/pkg/partition"
	"github.com/Sumatoshi-tech/prfang/pkg/toposort"
)

// ErrCyclicDependency indicates the group-level dependency graph contains a
// cycle. The orderer never picks an arbitrary order for a cyclic case.
var ErrCyclicDependency = errors.New("cyclic dependency between groups")

// CycleEdge is one file-level import edge participating in a group cycle.
type CycleEdge struct {
	FromGroup string `json:"from_group"`
	ToGroup   string `json:"to_group"`
	FromFile  string `json:"from_file"`
	ToFile    string `json:"to_file"`
}

// CycleError carries the minimal cycle found in the group dependency graph:
// the group ids involved and the file-level edges causing it.
type CycleError struct {
	// Groups lists the recommendation ids forming the cycle.
	Groups []string
	// Edges lists the file-level import edges between the cyclic groups.
	Edges []CycleEdge
}

// Error implements error.
func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: groups [%s]", ErrCyclicDependency, strings.Join(e.Groups, ", "))
}

// Unwrap makes errors.Is(err, ErrCyclicDependency) hold.
func (e *CycleError) Unwrap() error {
	return ErrCyclicDependency
}

// Order assigns merge-order ranks to the partition's groups and verifies
// atomicity at each assigned position.
//
// A group edge A -> B exists when any file in A has an import edge whose
// target lives in B: A depends on B, so B merges first. Cycles abort with a
// *CycleError naming the smallest cycle; the caller receives no ranks. Ties
// in the topological order break by ascending risk, then by the smallest
// contained file path.
func Order(p *partition.Partition, graph *changegraph.Graph, results []feasibility.GroupResult) ([]PRRecommendation, error) {
	ids := make([]string, len(p.Groups))
	for i, g := range p.Groups {
		ids[i] = RecommendationID(g.Files)
	}

	assignment := make(map[string]int)

	for i, g := range p.Groups {
		for _, f := range g.Files {
			assignment[f] = i
		}
	}

	// Group-level dependency edges, keeping the file-level witnesses per pair.
	witnesses := make(map[groupPair][]CycleEdge)

	for _, e := range graph.EdgesOfKind(changegraph.EdgeImport) {
		from, okFrom := assignment[e.From]
		to, okTo := assignment[e.To]

		if !okFrom || !okTo || from == to {
			continue
		}

		pair := groupPair{from: from, to: to}
		witnesses[pair] = append(witnesses[pair], CycleEdge{
			FromGroup: ids[from],
			ToGroup:   ids[to],
			FromFile:  e.From,
			ToFile:    e.To,
		})
	}

	deps := make(map[int][]int)

	for pair := range witnesses {
		deps[pair.from] = append(deps[pair.from], pair.to)
	}

	cycle := findCycle(ids, witnesses)
	if cycle != nil {
		return nil, cycle
	}

	ranks := assignRanks(p, ids, deps, results)

	return buildRecommendations(p, graph, results, ids, deps, ranks), nil
}

// groupPair identifies a directed group-to-group dependency.
type groupPair struct{ from, to int }

// buildGroupGraph lifts the witnessed group pairs into a toposort graph over
// recommendation ids.
func buildGroupGraph(ids []string, witnesses map[groupPair][]CycleEdge) *toposort.Graph {
	g := toposort.NewGraph()

	for _, id := range ids {
		g.AddNode(id)
	}

	for pair := range witnesses {
		g.AddEdge(ids[pair.from], ids[pair.to])
	}

	return g
}

// findCycle runs SCC analysis over the group graph and reports the minimal
// cycle, if any.
func findCycle(ids []string, witnesses map[groupPair][]CycleEdge) *CycleError {
	idToIndex := make(map[string]int, len(ids))
	for i, id := range ids {
		idToIndex[id] = i
	}

	g := buildGroupGraph(ids, witnesses)

	var smallest []string

	for _, component := range g.StronglyConnected() {
		if len(component) < 2 {
			continue
		}

		if smallest == nil || len(component) < len(smallest) {
			smallest = component
		}
	}

	if smallest == nil {
		return nil
	}

	inCycle := make(map[int]struct{}, len(smallest))
	for _, id := range smallest {
		inCycle[idToIndex[id]] = struct{}{}
	}

	var edges []CycleEdge

	for pair, ws := range witnesses {
		_, fromIn := inCycle[pair.from]
		_, toIn := inCycle[pair.to]

		if fromIn && toIn {
			edges = append(edges, ws...)
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].FromFile != edges[j].FromFile {
			return edges[i].FromFile < edges[j].FromFile
		}

		return edges[i].ToFile < edges[j].ToFile
	})

	return &CycleError{Groups: smallest, Edges: edges}
}

// assignRanks produces the merge order: dependencies first, ties by
// ascending risk then smallest file path. Edges are reversed before sorting
// so a group's prerequisites land at earlier ranks.
func assignRanks(p *partition.Partition, ids []string, deps map[int][]int, results []feasibility.GroupResult) []int {
	idToIndex := make(map[string]int, len(ids))
	for i, id := range ids {
		idToIndex[id] = i
	}

	g := toposort.NewGraph()

	for _, id := range ids {
		g.AddNode(id)
	}

	for from, tos := range deps {
		for _, to := range tos {
			g.AddEdge(ids[to], ids[from])
		}
	}

	less := func(a, b string) bool {
		ga, gb := idToIndex[a], idToIndex[b]

		ra, rb := riskOf(results, ga), riskOf(results, gb)
		if ra != rb {
			return ra < rb
		}

		return p.Groups[ga].Files[0] < p.Groups[gb].Files[0]
	}

	// Cycles were rejected before ranking, so the sort always completes.
	order, _ := g.ToposortFunc(less)

	ranks := make([]int, len(ids))
	for pos, id := range order {
		ranks[idToIndex[id]] = pos
	}

	return ranks
}

// AuditRanks checks atomicity for an explicit merge order: ranks[i] is the
// merge position of p.Groups[i]. The result is indexed like p.Groups, nil
// entries for clean groups. Order's own ranks always satisfy the import
// edges they were derived from, so this exists for caller-supplied orders.
func AuditRanks(p *partition.Partition, graph *changegraph.Graph, ranks []int) [][]AtomicityViolation {
	ids := make([]string, len(p.Groups))
	for i, g := range p.Groups {
		ids[i] = RecommendationID(g.Files)
	}

	assignment := make(map[string]int)

	for i, g := range p.Groups {
		for _, f := range g.Files {
			assignment[f] = i
		}
	}

	out := make([][]AtomicityViolation, len(p.Groups))
	for i, g := range p.Groups {
		out[i] = atomicityViolations(g, graph, assignment, ids, ranks, i)
	}

	return out
}

// buildRecommendations assembles immutable recommendations in rank order and
// checks atomicity: no file may import a symbol exported only by groups
// ranked after it.
func buildRecommendations(
	p *partition.Partition,
	graph *changegraph.Graph,
	results []feasibility.GroupResult,
	ids []string,
	deps map[int][]int,
	ranks []int,
) []PRRecommendation {
	assignment := make(map[string]int)

	for i, g := range p.Groups {
		for _, f := range g.Files {
			assignment[f] = i
		}
	}

	recs := make([]PRRecommendation, len(p.Groups))

	for i, group := range p.Groups {
		dependsOn := make([]string, 0, len(deps[i]))
		for _, to := range deps[i] {
			dependsOn = append(dependsOn, ids[to])
		}

		sort.Strings(dependsOn)

		feasible := true

		var violations []string

		for _, r := range results {
			if r.GroupIndex == i {
				feasible = r.Feasible
				violations = r.Violations

				break
			}
		}

		title := buildTitle(group)

		recs[ranks[i]] = PRRecommendation{
			ID:          ids[i],
			Files:       group.Files,
			Title:       title,
			Description: buildDescription(group, graph),
			Branch:      branchName(title),
			Risk:        riskOf(results, i),
			Rank:        ranks[i],
			DependsOn:   dependsOn,
			Violations:  violations,
			Feasible:    feasible,
		}
	}

	for i, group := range p.Groups {
		recs[ranks[i]].Atomicity = atomicityViolations(group, graph, assignment, ids, ranks, i)
	}

	return recs
}

// atomicityViolations finds imports of symbols exported only by files in
// higher-ranked (not yet merged) groups.
func atomicityViolations(
	group partition.Group,
	graph *changegraph.Graph,
	assignment map[string]int,
	ids []string,
	ranks []int,
	groupIdx int,
) []AtomicityViolation {
	var out []AtomicityViolation

	for _, file := range group.Files {
		cf, ok := graph.File(file)
		if !ok {
			continue
		}

		for _, sym := range cf.Imports {
			exporters := graph.Exporters(sym)
			if len(exporters) == 0 {
				// External symbol, no ordering constraint.
				continue
			}

			violating := earliestExporterRank(exporters, assignment, ranks, groupIdx)
			if violating < 0 {
				continue
			}

			out = append(out, AtomicityViolation{
				File:       file,
				Symbol:     sym,
				ExportedBy: ids[violating],
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}

		return out[i].Symbol < out[j].Symbol
	})

	return out
}

// earliestExporterRank returns the group index of the lowest-ranked exporter
// when every exporter of the symbol sits strictly above the importing
// group's rank, or -1 when at least one exporter is already merged (the
// import is satisfiable at this position).
func earliestExporterRank(exporters []string, assignment map[string]int, ranks []int, groupIdx int) int {
	myRank := ranks[groupIdx]

	best := -1
	bestRank := -1

	for _, exporter := range exporters {
		gi, ok := assignment[exporter]
		if !ok {
			continue
		}

		if gi == groupIdx || ranks[gi] <= myRank {
			return -1
		}

		if best < 0 || ranks[gi] < bestRank {
			best, bestRank = gi, ranks[gi]
		}
	}

	return best
}
