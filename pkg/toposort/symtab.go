package toposort

// symbolTable interns node names as dense integer IDs so the graph can use
// slice-indexed adjacency lists. Not safe for concurrent use; a graph is
// built and sorted by a single goroutine.
type symbolTable struct {
	toID  map[string]int
	toStr []string
}

func newSymbolTable() *symbolTable {
	return &symbolTable{toID: make(map[string]int)}
}

// intern returns the ID for name, assigning the next dense ID on first use.
func (t *symbolTable) intern(name string) int {
	if id, ok := t.toID[name]; ok {
		return id
	}

	id := len(t.toStr)
	t.toStr = append(t.toStr, name)
	t.toID[name] = id

	return id
}

// lookup returns the ID for name without interning.
func (t *symbolTable) lookup(name string) (int, bool) {
	id, ok := t.toID[name]
	return id, ok
}

// resolve returns the name for an ID, or empty for an invalid ID.
func (t *symbolTable) resolve(id int) string {
	if id < 0 || id >= len(t.toStr) {
		return ""
	}

	return t.toStr[id]
}

func (t *symbolTable) len() int {
	return len(t.toStr)
}
