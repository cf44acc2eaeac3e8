package rcarules

import (
	"math"
	"sort"
	"strings"

	"github.com/kcalliga/rca-core/internal/episode"
	"github.com/kcalliga/rca-core/internal/logging"
	"github.com/kcalliga/rca-core/internal/topology"
)

// GraphQuerier is the subset of topology.Graph (and topology.CachedGraph)
// the engine needs. It lets the engine run unmodified whether or not the
// driver wraps the graph with query caching.
type GraphQuerier interface {
	Has(id topology.NodeID) bool
	BFS(seeds []topology.NodeID, maxHops int, dir topology.Direction) map[topology.NodeID]struct{}
	ShortestPathLen(a, b topology.NodeID, dir topology.Direction, maxHops int) (int, bool)
}

const (
	focusMaxHops = 3
	hopDecay     = 0.2
	maxCandidates = 3
)

// focusPriority is the entity-kind priority order used to pick an episode's
// focus entity: pod beats node beats namespace.
var focusPriority = []string{"pod", "node", "namespace"}

// Evaluate runs every rule against one episode and returns its top-3
// candidates sorted by descending score, ties broken by rule-file order.
func Evaluate(ep *episode.Episode, rules []Rule, g GraphQuerier) []CandidateRoot {
	logger := logging.GetLogger("rcarules")
	var candidates []CandidateRoot
	matched := 0

	focus, focusOK := selectFocus(ep)

	for _, r := range rules {
		if !r.When.matches(ep) {
			continue
		}
		matched++

		component, topoScore := selectRoot(g, focus, focusOK, r.RootComponent)

		temporal := r.Score.temporal()
		magnitude := r.Score.magnitude() * math.Min(1.0, ep.Features["error_ratio"])
		change := r.Score.changeFlag() * ep.Features["rollout_in_window"]
		topologyTerm := r.Score.topology() * topoScore
		total := temporal + topologyTerm + magnitude + change

		reason := r.Reason
		if reason == "" {
			reason = r.ID
		}
		evidence := r.Evidence
		if evidence == nil {
			evidence = []string{}
		}

		candidates = append(candidates, CandidateRoot{
			Component: component,
			Reason:    reason,
			Evidence:  evidence,
			ScoreBreakdown: map[string]float64{
				"temporal":  round4(temporal),
				"topology":  round4(topologyTerm),
				"magnitude": round4(magnitude),
				"change":    round4(change),
			},
			Score: round4(total),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}
	logger.Debug("episode %s matched %d rule(s), emitting %d candidate(s)", ep.EpisodeID, matched, len(candidates))
	return candidates
}

// selectFocus picks the highest-priority entity present in the episode and
// composes its graph node id. A bare pod name is qualified with the
// episode's first namespace when one is present.
func selectFocus(ep *episode.Episode) (topology.NodeID, bool) {
	for _, kind := range focusPriority {
		vals := ep.Entities[kind]
		if len(vals) == 0 {
			continue
		}
		v := vals[0]
		if strings.Contains(v, "/") {
			return topology.NodeID(v), true
		}
		if ns := ep.Entities["namespace"]; kind == "pod" && len(ns) > 0 {
			return topology.NodeID("pod/" + ns[0] + "/" + v), true
		}
		return topology.NodeID(kind + "/" + v), true
	}
	return "", false
}

// selectRoot locates the nearest graph node whose id starts with
// rootComponent+"/" within focusMaxHops of focus, returning its id and the
// hop-decayed topology score. Matches at equal hop distance are decided by
// the lexicographically smallest node id, not by adjacency order. Falls back to (focus, 0) or ("cluster", 0)
// when root_component or focus is absent, or no match is reachable.
func selectRoot(g GraphQuerier, focus topology.NodeID, focusOK bool, rootComponent string) (string, float64) {
	fallback := "cluster"
	if focusOK {
		fallback = string(focus)
	}
	if rootComponent == "" || !focusOK {
		return fallback, 0
	}

	reachable := g.BFS([]topology.NodeID{focus}, focusMaxHops, topology.DirBoth)
	prefix := rootComponent + "/"

	bestHops := -1
	var best topology.NodeID
	for nid := range reachable {
		if !strings.HasPrefix(string(nid), prefix) {
			continue
		}
		hops, ok := g.ShortestPathLen(focus, nid, topology.DirBoth, 8)
		if !ok {
			continue
		}
		if bestHops == -1 || hops < bestHops || (hops == bestHops && nid < best) {
			bestHops = hops
			best = nid
		}
	}
	if bestHops == -1 {
		return fallback, 0
	}
	return string(best), math.Max(0, 1-hopDecay*float64(bestHops))
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
