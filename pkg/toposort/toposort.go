// Package toposort provides a directed graph over string-named nodes with
// deterministic topological ordering and strongly-connected-component
// analysis for cycle reporting.
package toposort

import "sort"

// Graph is a directed graph over string-named nodes. Node names are interned
// to dense integer IDs internally; all public APIs speak strings.
type Graph struct {
	symbols *symbolTable
	// adjacency[u] lists v for every edge u -> v.
	adjacency [][]int
	inDegree  []int
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{symbols: newSymbolTable()}
}

// AddNode inserts a node. Returns false if the node already exists.
func (g *Graph) AddNode(name string) bool {
	if _, exists := g.symbols.lookup(name); exists {
		return false
	}

	g.ensure(g.symbols.intern(name))

	return true
}

// AddEdge inserts a directed edge, creating missing endpoints. Returns false
// if the edge already exists.
func (g *Graph) AddEdge(from, to string) bool {
	u := g.symbols.intern(from)
	v := g.symbols.intern(to)
	g.ensure(max(u, v))

	for _, w := range g.adjacency[u] {
		if w == v {
			return false
		}
	}

	g.adjacency[u] = append(g.adjacency[u], v)
	g.inDegree[v]++

	return true
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return g.symbols.len()
}

// Toposort returns the nodes in topological order, breaking ties by
// lexicographically smallest node name so repeated runs over the same graph
// produce the same order. The second result is false when the graph contains
// a cycle; the partial order emitted so far is returned for diagnosis.
func (g *Graph) Toposort() ([]string, bool) {
	return g.ToposortFunc(func(a, b string) bool { return a < b })
}

// ToposortFunc is Toposort with a caller-supplied tie-break: whenever several
// nodes are ready at once, the one smallest under less is emitted first. The
// ordering must be a strict weak ordering over node names.
func (g *Graph) ToposortFunc(less func(a, b string) bool) ([]string, bool) {
	n := g.symbols.len()
	if n == 0 {
		return []string{}, true
	}

	inDegree := make([]int, n)
	copy(inDegree, g.inDegree)

	byName := func(i, j int) bool {
		return less(g.symbols.resolve(i), g.symbols.resolve(j))
	}

	var ready []int

	for id := 0; id < n; id++ {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	sort.Slice(ready, func(i, j int) bool { return byName(ready[i], ready[j]) })

	order := make([]string, 0, n)

	for len(ready) > 0 {
		u := ready[0]
		ready = ready[1:]
		order = append(order, g.symbols.resolve(u))

		released := false

		for _, v := range g.adjacency[u] {
			inDegree[v]--
			if inDegree[v] == 0 {
				ready = append(ready, v)
				released = true
			}
		}

		if released {
			sort.Slice(ready, func(i, j int) bool { return byName(ready[i], ready[j]) })
		}
	}

	return order, len(order) == n
}

// StronglyConnected returns the strongly connected components of the graph
// via Tarjan's algorithm. Component members are sorted by name and the
// component list is sorted by its smallest member, so output is
// deterministic. Components of size >= 2 (or a self-loop) are cycles.
func (g *Graph) StronglyConnected() [][]string {
	n := g.symbols.len()

	const unvisited = -1

	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)

	for i := range index {
		index[i] = unvisited
	}

	var (
		counter    int
		stack      []int
		components [][]string
	)

	// Iterative Tarjan to stay safe on deep graphs.
	type frame struct {
		node  int
		child int
	}

	for root := 0; root < n; root++ {
		if index[root] != unvisited {
			continue
		}

		frames := []frame{{node: root}}

		for len(frames) > 0 {
			f := &frames[len(frames)-1]
			u := f.node

			if f.child == 0 {
				index[u] = counter
				lowlink[u] = counter
				counter++

				stack = append(stack, u)
				onStack[u] = true
			}

			advanced := false

			for f.child < len(g.adjacency[u]) {
				v := g.adjacency[u][f.child]
				f.child++

				if index[v] == unvisited {
					frames = append(frames, frame{node: v})
					advanced = true

					break
				}

				if onStack[v] && index[v] < lowlink[u] {
					lowlink[u] = index[v]
				}
			}

			if advanced {
				continue
			}

			if lowlink[u] == index[u] {
				var members []string

				for {
					top := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[top] = false

					members = append(members, g.symbols.resolve(top))

					if top == u {
						break
					}
				}

				sort.Strings(members)
				components = append(components, members)
			}

			frames = frames[:len(frames)-1]

			if len(frames) > 0 {
				parent := frames[len(frames)-1].node
				if lowlink[u] < lowlink[parent] {
					lowlink[parent] = lowlink[u]
				}
			}
		}
	}

	sort.Slice(components, func(i, j int) bool {
		return components[i][0] < components[j][0]
	})

	return components
}

func (g *Graph) ensure(id int) {
	for len(g.adjacency) <= id {
		g.adjacency = append(g.adjacency, nil)
		g.inDegree = append(g.inDegree, 0)
	}
}
