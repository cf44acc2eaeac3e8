package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		Nodes: []SnapshotNode{{Name: "node-a"}},
		Pods: []SnapshotPod{
			{Name: "api-1", NS: "prod", Node: "node-a", Owner: &Owner{Kind: "ReplicaSet", Name: "api-rs"}},
		},
		ReplicaSets: []SnapshotReplicaSet{
			{Name: "api-rs", NS: "prod", Owner: &Owner{Kind: "Deployment", Name: "api"}},
		},
		Deployments: []SnapshotDeployment{{Name: "api", NS: "prod"}},
		Services:    []SnapshotService{{Name: "api-svc", NS: "prod"}},
		Endpoints:   []SnapshotEndpoints{{Svc: "api-svc", NS: "prod", Pods: []string{"api-1"}}},
		Routes:      []SnapshotRoute{{Name: "api-route", NS: "prod", ToSvc: "api-svc"}},
		PVCs:        []SnapshotPVC{{Name: "api-data", NS: "prod", Pod: "api-1", PV: "pv-1"}},
		PVs:         []SnapshotPV{{Name: "pv-1"}},
		HPAs:        []SnapshotHPA{{Name: "api-hpa", NS: "prod", TargetDeploy: "api"}},
	}
}

func TestBuildFromSnapshot_Wiring(t *testing.T) {
	g := BuildFromSnapshot(sampleSnapshot())

	assert.True(t, g.Has("node/node-a"))
	assert.True(t, g.Has("pod/prod/api-1"))
	assert.True(t, g.Has("deployment/prod/api"))

	n := g.Neighbors("pod/prod/api-1", DirOut)
	assertHasEdge(t, n, "node/node-a", RelRunsOn)
	assertHasEdge(t, n, "replicaset/prod/api-rs", RelOwnedBy)

	n = g.Neighbors("service/prod/api-svc", DirOut)
	assertHasEdge(t, n, "pod/prod/api-1", RelRoutes)

	n = g.Neighbors("route/prod/api-route", DirOut)
	assertHasEdge(t, n, "service/prod/api-svc", RelExposes)

	n = g.Neighbors("pod/prod/api-1", DirOut)
	assertHasEdge(t, n, "pvc/prod/api-data", RelMounts)

	n = g.Neighbors("hpa/prod/api-hpa", DirOut)
	assertHasEdge(t, n, "deployment/prod/api", RelTargets)
}

func assertHasEdge(t *testing.T, neighbors []Neighbor, dst NodeID, rel Relation) {
	t.Helper()
	for _, n := range neighbors {
		if n.ID == dst && n.Rel == rel {
			return
		}
	}
	t.Fatalf("expected edge to %s (%s) in %v", dst, rel, neighbors)
}

func TestBuildFromSnapshot_MissingEndpointPod_DropsEdge(t *testing.T) {
	snap := sampleSnapshot()
	snap.Endpoints = []SnapshotEndpoints{{Svc: "api-svc", NS: "prod", Pods: []string{"ghost"}}}
	g := BuildFromSnapshot(snap)
	n := g.Neighbors("service/prod/api-svc", DirOut)
	assert.Empty(t, n)
}

func TestBuildFromSnapshot_EveryEdgeEndpointIsANode(t *testing.T) {
	g := BuildFromSnapshot(sampleSnapshot())
	for _, e := range g.iterEdges() {
		assert.True(t, g.Has(e.Src), "src %s must be a node", e.Src)
		assert.True(t, g.Has(e.Dst), "dst %s must be a node", e.Dst)
	}
}

func TestBFS_MonotonicInHops(t *testing.T) {
	g := BuildFromSnapshot(sampleSnapshot())
	h0 := g.BFS([]NodeID{"pod/prod/api-1"}, 0, DirBoth)
	h1 := g.BFS([]NodeID{"pod/prod/api-1"}, 1, DirBoth)
	h2 := g.BFS([]NodeID{"pod/prod/api-1"}, 2, DirBoth)

	assert.Equal(t, map[NodeID]struct{}{"pod/prod/api-1": {}}, h0)
	for k := range h1 {
		_ = k
	}
	for k := range h0 {
		assert.Contains(t, h1, k)
	}
	for k := range h1 {
		assert.Contains(t, h2, k)
	}
}

func TestBFS_UnknownSeedIsIgnored(t *testing.T) {
	g := BuildFromSnapshot(sampleSnapshot())
	got := g.BFS([]NodeID{"pod/prod/does-not-exist"}, 2, DirBoth)
	assert.Empty(t, got)
}

func TestShortestPathLen(t *testing.T) {
	g := BuildFromSnapshot(sampleSnapshot())

	hops, ok := g.ShortestPathLen("pod/prod/api-1", "node/node-a", DirBoth, 8)
	require.True(t, ok)
	assert.Equal(t, 1, hops)

	_, ok = g.ShortestPathLen("pod/prod/api-1", "node/unknown-node", DirBoth, 8)
	assert.False(t, ok)

	_, ok = g.ShortestPathLen("node/does-not-exist", "node/node-a", DirBoth, 8)
	assert.False(t, ok)
}

func TestShortestPathLen_TriangleInequality(t *testing.T) {
	g := BuildFromSnapshot(sampleSnapshot())
	a, b, c := NodeID("pod/prod/api-1"), NodeID("node/node-a"), NodeID("deployment/prod/api")

	ab, okAB := g.ShortestPathLen(a, b, DirBoth, 8)
	ac, okAC := g.ShortestPathLen(a, c, DirBoth, 8)
	cb, okCB := g.ShortestPathLen(c, b, DirBoth, 8)
	require.True(t, okAB)
	require.True(t, okAC)
	require.True(t, okCB)
	assert.LessOrEqual(t, ab, ac+cb)
}

func TestJSONRoundTrip(t *testing.T) {
	g := BuildFromSnapshot(sampleSnapshot())
	data, err := g.ToJSON()
	require.NoError(t, err)

	g2, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, g.NodeCount(), g2.NodeCount())

	n := g2.Neighbors("pod/prod/api-1", DirOut)
	assertHasEdge(t, n, "node/node-a", RelRunsOn)
}

func TestIterEdges_DedupesParallelEdges(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", RelRunsOn)
	g.AddEdge("a", "b", RelRunsOn)
	edges := g.iterEdges()
	assert.Len(t, edges, 1)
}

func TestCachedGraph_MatchesUncached(t *testing.T) {
	g := BuildFromSnapshot(sampleSnapshot())
	cg := NewCachedGraph(g, 16)

	want := g.BFS([]NodeID{"pod/prod/api-1"}, 2, DirBoth)
	got := cg.BFS([]NodeID{"pod/prod/api-1"}, 2, DirBoth)
	assert.Equal(t, want, got)
	got2 := cg.BFS([]NodeID{"pod/prod/api-1"}, 2, DirBoth)
	assert.Equal(t, want, got2)
	hits, misses := cg.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}
