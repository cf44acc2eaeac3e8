package rcarules

import (
	"testing"

	"github.com/kcalliga/rca-core/internal/episode"
	"github.com/kcalliga/rca-core/internal/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildGraph() *topology.Graph {
	return topology.BuildFromSnapshot(&topology.Snapshot{
		Nodes: []topology.SnapshotNode{{Name: "node-a"}},
		Pods: []topology.SnapshotPod{
			{Name: "api-1", NS: "prod", Node: "node-a"},
		},
	})
}

func ptr(f float64) *float64 { return &f }

func TestEvaluate_UnconditionalRuleAlwaysMatches(t *testing.T) {
	ep := &episode.Episode{Entities: map[string][]string{}, Features: map[string]float64{}}
	rules := []Rule{{ID: "r1", Reason: "always"}}
	cands := Evaluate(ep, rules, buildGraph())
	require.Len(t, cands, 1)
	assert.Equal(t, "cluster", cands[0].Component)
}

func TestEvaluate_MetricSignal(t *testing.T) {
	ep := &episode.Episode{
		Entities: map[string][]string{"pod": {"api-1"}},
		Features: map[string]float64{"error_ratio": 0.8},
	}
	rules := []Rule{{
		ID:     "high-error",
		Reason: "high error ratio",
		When:   &Predicate{All: []Signal{{Metric: "error_ratio", Op: ">", Value: 0.5}}},
	}}
	cands := Evaluate(ep, rules, buildGraph())
	require.Len(t, cands, 1)
	assert.Equal(t, "pod/api-1", cands[0].Component)
	assert.InDelta(t, 0.3*0.8, cands[0].ScoreBreakdown["magnitude"], 1e-9)
}

func TestEvaluate_EventSignal(t *testing.T) {
	ep := &episode.Episode{
		Entities: map[string][]string{},
		Features: map[string]float64{},
		Events:   []episode.Event{{Msg: "ImagePullBackOff detected"}},
	}
	rules := []Rule{{
		ID:   "pull-backoff",
		When: &Predicate{Any: []Signal{{Event: "imagepullbackoff"}}},
	}}
	cands := Evaluate(ep, rules, buildGraph())
	require.Len(t, cands, 1)
}

func TestEvaluate_RootComponentFindsNearestMatch(t *testing.T) {
	ep := &episode.Episode{
		Entities: map[string][]string{"pod": {"pod/prod/api-1"}},
		Features: map[string]float64{},
	}
	rules := []Rule{{
		ID:            "node-issue",
		RootComponent: "node",
	}}
	cands := Evaluate(ep, rules, buildGraph())
	require.Len(t, cands, 1)
	assert.Equal(t, "node/node-a", cands[0].Component)
	assert.InDelta(t, 0.4*0.8, cands[0].ScoreBreakdown["topology"], 1e-9)
}

func TestEvaluate_RootComponentNoFocusYieldsClusterAndZeroTopology(t *testing.T) {
	ep := &episode.Episode{Entities: map[string][]string{}, Features: map[string]float64{}}
	rules := []Rule{{ID: "r1", RootComponent: "node"}}
	cands := Evaluate(ep, rules, buildGraph())
	require.Len(t, cands, 1)
	assert.Equal(t, "cluster", cands[0].Component)
	assert.Equal(t, 0.0, cands[0].ScoreBreakdown["topology"])
}

func TestEvaluate_TopN3AndSortedDescending(t *testing.T) {
	ep := &episode.Episode{Entities: map[string][]string{}, Features: map[string]float64{}}
	rules := []Rule{
		{ID: "a", Score: ScoreWeights{Temporal: ptr(0.1)}},
		{ID: "b", Score: ScoreWeights{Temporal: ptr(0.9)}},
		{ID: "c", Score: ScoreWeights{Temporal: ptr(0.5)}},
		{ID: "d", Score: ScoreWeights{Temporal: ptr(0.7)}},
	}
	cands := Evaluate(ep, rules, buildGraph())
	require.Len(t, cands, 3)
	assert.Equal(t, 0.9, cands[0].Score)
	assert.Equal(t, 0.7, cands[1].Score)
	assert.Equal(t, 0.5, cands[2].Score)
}

func TestEvaluate_ScoreEqualsSumOfBreakdown(t *testing.T) {
	ep := &episode.Episode{
		Entities: map[string][]string{"pod": {"pod/prod/api-1"}},
		Features: map[string]float64{"error_ratio": 0.6, "rollout_in_window": 1},
	}
	rules := []Rule{{ID: "r1", RootComponent: "node", Score: ScoreWeights{ChangeFlag: ptr(0.2)}}}
	cands := Evaluate(ep, rules, buildGraph())
	require.Len(t, cands, 1)
	sum := 0.0
	for _, v := range cands[0].ScoreBreakdown {
		sum += v
	}
	assert.InDelta(t, cands[0].Score, sum, 1e-9)
}

func TestSignal_UnknownOperatorEvaluatesFalse(t *testing.T) {
	ep := &episode.Episode{Features: map[string]float64{"error_ratio": 0.9}}
	s := Signal{Metric: "error_ratio", Op: "~=", Value: 0.1}
	assert.False(t, s.matches(ep))
}
