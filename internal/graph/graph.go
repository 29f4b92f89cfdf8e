package graph

// Edge links a zone to a neighbour through a transit.
type Edge struct {
	To      int // neighbouring zone index
	Transit int // transit index
}

// Graph is the undirected zone adjacency. It is immutable once built and
// may be shared between runs over clones of the same model.
type Graph struct {
	adj     [][]Edge
	outside int
}

// New allocates a graph over n zones; the last zone is the outside sink.
func New(n int) *Graph {
	return &Graph{adj: make([][]Edge, n), outside: n - 1}
}

// AddEdge records a symmetric link between zones a and b.
func (g *Graph) AddEdge(a, b, transit int) {
	g.adj[a] = append(g.adj[a], Edge{To: b, Transit: transit})
	g.adj[b] = append(g.adj[b], Edge{To: a, Transit: transit})
}

// Adjacent returns the edges of zone i in transit insertion order.
func (g *Graph) Adjacent(i int) []Edge {
	return g.adj[i]
}

// Outside returns the index of the sink zone.
func (g *Graph) Outside() int {
	return g.outside
}

// ZoneCount returns the number of vertices.
func (g *Graph) ZoneCount() int {
	return len(g.adj)
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, es := range g.adj {
		n += len(es)
	}
	return n / 2
}
