package topology

import "github.com/kcalliga/rca-core/internal/logging"

// Graph is a typed, heterogeneous, directed multigraph of cluster entities.
// It is built once per run and never mutated by query callers; callers that
// need caching should wrap it with NewCachedGraph.
type Graph struct {
	adj  map[NodeID][]Neighbor
	radj map[NodeID][]Neighbor
	meta map[NodeID]map[string]any

	logger *logging.Logger
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		adj:    make(map[NodeID][]Neighbor),
		radj:   make(map[NodeID][]Neighbor),
		meta:   make(map[NodeID]map[string]any),
		logger: logging.GetLogger("topology"),
	}
}

// AddNode ensures nid exists and merges fields into its metadata. Calling
// AddNode multiple times for the same id is safe and additive.
func (g *Graph) AddNode(nid NodeID, fields map[string]any) {
	if _, ok := g.adj[nid]; !ok {
		g.adj[nid] = nil
	}
	if _, ok := g.radj[nid]; !ok {
		g.radj[nid] = nil
	}
	m, ok := g.meta[nid]
	if !ok {
		m = make(map[string]any)
		g.meta[nid] = m
	}
	for k, v := range fields {
		m[k] = v
	}
}

// AddEdge appends a directed edge. Endpoints that do not yet exist as nodes
// are created implicitly with empty metadata, per the invariant that every
// edge endpoint appears as a node.
func (g *Graph) AddEdge(src, dst NodeID, rel Relation) {
	if _, ok := g.meta[src]; !ok {
		g.AddNode(src, nil)
	}
	if _, ok := g.meta[dst]; !ok {
		g.AddNode(dst, nil)
	}
	g.adj[src] = append(g.adj[src], Neighbor{ID: dst, Rel: rel})
	g.radj[dst] = append(g.radj[dst], Neighbor{ID: src, Rel: rel})
}

// Has reports whether nid is a known node.
func (g *Graph) Has(nid NodeID) bool {
	_, ok := g.meta[nid]
	return ok
}

// Meta returns a node's metadata, or nil if unknown.
func (g *Graph) Meta(nid NodeID) map[string]any {
	return g.meta[nid]
}

// NodeCount returns the number of known nodes.
func (g *Graph) NodeCount() int { return len(g.meta) }

// Neighbors returns the (possibly duplicated) list of neighbors of nid in
// the given direction. Unknown nodes return an empty slice.
func (g *Graph) Neighbors(nid NodeID, dir Direction) []Neighbor {
	switch dir {
	case DirOut:
		return append([]Neighbor(nil), g.adj[nid]...)
	case DirIn:
		return append([]Neighbor(nil), g.radj[nid]...)
	default:
		out := make([]Neighbor, 0, len(g.adj[nid])+len(g.radj[nid]))
		out = append(out, g.adj[nid]...)
		out = append(out, g.radj[nid]...)
		return out
	}
}

// BFS returns the set of nodes reachable from seeds within maxHops edges,
// including the seeds themselves. Seeds absent from the graph are ignored.
// Direction defaults to "both" when dir is empty.
func (g *Graph) BFS(seeds []NodeID, maxHops int, dir Direction) map[NodeID]struct{} {
	if dir == "" {
		dir = DirBoth
	}
	type item struct {
		id   NodeID
		hops int
	}
	seen := make(map[NodeID]struct{})
	queue := make([]item, 0, len(seeds))
	for _, s := range seeds {
		if !g.Has(s) {
			continue
		}
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			queue = append(queue, item{id: s, hops: 0})
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.hops == maxHops {
			continue
		}
		for _, n := range g.Neighbors(cur.id, dir) {
			if _, ok := seen[n.ID]; ok {
				continue
			}
			seen[n.ID] = struct{}{}
			queue = append(queue, item{id: n.ID, hops: cur.hops + 1})
		}
	}
	return seen
}

// ShortestPathLen returns the minimum hop count between a and b using BFS,
// or (0, false) if either endpoint is unknown or b is unreachable from a
// within maxHops. A maxHops of 0 or less uses the default of 8.
func (g *Graph) ShortestPathLen(a, b NodeID, dir Direction, maxHops int) (int, bool) {
	if dir == "" {
		dir = DirBoth
	}
	if maxHops <= 0 {
		maxHops = 8
	}
	if !g.Has(a) || !g.Has(b) {
		return 0, false
	}
	if a == b {
		return 0, true
	}
	type item struct {
		id   NodeID
		hops int
	}
	seen := map[NodeID]struct{}{a: {}}
	queue := []item{{id: a, hops: 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.hops == maxHops {
			continue
		}
		for _, n := range g.Neighbors(cur.id, dir) {
			if n.ID == b {
				return cur.hops + 1, true
			}
			if _, ok := seen[n.ID]; ok {
				continue
			}
			seen[n.ID] = struct{}{}
			queue = append(queue, item{id: n.ID, hops: cur.hops + 1})
		}
	}
	return 0, false
}
