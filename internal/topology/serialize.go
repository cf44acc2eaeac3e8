package topology

import "encoding/json"

type wireEdge struct {
	Src NodeID   `json:"src"`
	Dst NodeID   `json:"dst"`
	Rel Relation `json:"rel"`
}

type wireGraph struct {
	Meta  map[NodeID]map[string]any `json:"meta"`
	Edges []wireEdge                `json:"edges"`
}

// iterEdges yields every distinct (src, dst, rel) triple exactly once,
// deduplicating parallel edges only at emission time; the adjacency lists
// themselves retain duplicates.
func (g *Graph) iterEdges() []wireEdge {
	seen := make(map[edge]struct{})
	var out []wireEdge
	for src, neighbors := range g.adj {
		for _, n := range neighbors {
			e := edge{Src: src, Dst: n.ID, Rel: n.Rel}
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			out = append(out, wireEdge{Src: e.Src, Dst: e.Dst, Rel: e.Rel})
		}
	}
	return out
}

// ToJSON serializes the graph to its wire form: node metadata plus a
// deduplicated edge list.
func (g *Graph) ToJSON() ([]byte, error) {
	return json.Marshal(wireGraph{Meta: g.meta, Edges: g.iterEdges()})
}

// FromJSON reconstructs a graph from its wire form.
func FromJSON(data []byte) (*Graph, error) {
	var wg wireGraph
	if err := json.Unmarshal(data, &wg); err != nil {
		return nil, err
	}
	g := New()
	for nid, meta := range wg.Meta {
		g.AddNode(nid, meta)
	}
	for _, e := range wg.Edges {
		g.AddEdge(e.Src, e.Dst, e.Rel)
	}
	return g, nil
}
