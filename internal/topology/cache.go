package topology

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/kcalliga/rca-core/internal/logging"
)

// CachedGraph wraps a Graph with a bounded LRU memoization layer for BFS and
// ShortestPathLen, the two query shapes the rule engine repeats heavily
// across rules within one episode. It never changes results, only avoids
// recomputation; callers that need strict determinism in tests should query
// the underlying Graph directly instead.
type CachedGraph struct {
	*Graph
	cache  *lru.Cache[string, any]
	logger *logging.Logger

	hits   uint64
	misses uint64
}

// NewCachedGraph wraps g with an LRU cache of the given capacity (entry
// count, not bytes). capacity <= 0 disables caching (pass-through).
func NewCachedGraph(g *Graph, capacity int) *CachedGraph {
	cg := &CachedGraph{Graph: g, logger: logging.GetLogger("topology.cache")}
	if capacity > 0 {
		c, err := lru.New[string, any](capacity)
		if err == nil {
			cg.cache = c
		}
	}
	return cg
}

func bfsKey(seeds []NodeID, maxHops int, dir Direction) string {
	ss := make([]string, len(seeds))
	for i, s := range seeds {
		ss[i] = string(s)
	}
	sort.Strings(ss)
	return fmt.Sprintf("bfs:%s:%d:%s", strings.Join(ss, ","), maxHops, dir)
}

func pathKey(a, b NodeID, dir Direction, maxHops int) string {
	return fmt.Sprintf("path:%s:%s:%s:%d", a, b, dir, maxHops)
}

// BFS is cache-aware BFS; semantics identical to Graph.BFS.
func (cg *CachedGraph) BFS(seeds []NodeID, maxHops int, dir Direction) map[NodeID]struct{} {
	if cg.cache == nil {
		return cg.Graph.BFS(seeds, maxHops, dir)
	}
	key := bfsKey(seeds, maxHops, dir)
	if v, ok := cg.cache.Get(key); ok {
		atomic.AddUint64(&cg.hits, 1)
		return v.(map[NodeID]struct{})
	}
	atomic.AddUint64(&cg.misses, 1)
	result := cg.Graph.BFS(seeds, maxHops, dir)
	cg.cache.Add(key, result)
	return result
}

// ShortestPathLen is cache-aware ShortestPathLen; semantics identical to
// Graph.ShortestPathLen.
func (cg *CachedGraph) ShortestPathLen(a, b NodeID, dir Direction, maxHops int) (int, bool) {
	if cg.cache == nil {
		return cg.Graph.ShortestPathLen(a, b, dir, maxHops)
	}
	key := pathKey(a, b, dir, maxHops)
	if v, ok := cg.cache.Get(key); ok {
		atomic.AddUint64(&cg.hits, 1)
		p := v.([2]int)
		return p[0], p[1] == 1
	}
	atomic.AddUint64(&cg.misses, 1)
	hops, ok := cg.Graph.ShortestPathLen(a, b, dir, maxHops)
	found := 0
	if ok {
		found = 1
	}
	cg.cache.Add(key, [2]int{hops, found})
	return hops, ok
}

// Stats returns (hits, misses).
func (cg *CachedGraph) Stats() (uint64, uint64) {
	return atomic.LoadUint64(&cg.hits), atomic.LoadUint64(&cg.misses)
}
