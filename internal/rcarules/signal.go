package rcarules

import (
	"strings"

	"github.com/kcalliga/rca-core/internal/episode"
)

// matches evaluates the predicate tree against an episode. A nil predicate
// (no "all"/"any" key in the rule) always matches.
func (p *Predicate) matches(ep *episode.Episode) bool {
	if p == nil {
		return true
	}
	if len(p.All) > 0 {
		for _, s := range p.All {
			if !s.matches(ep) {
				return false
			}
		}
		return true
	}
	if len(p.Any) > 0 {
		for _, s := range p.Any {
			if s.matches(ep) {
				return true
			}
		}
		return false
	}
	return true
}

// matches evaluates one signal leaf. Unknown operators or absent features
// evaluate false rather than erroring, per the engine's tolerant failure
// semantics.
func (s Signal) matches(ep *episode.Episode) bool {
	switch {
	case s.Metric != "":
		x, ok := ep.Features[s.Metric]
		if !ok {
			return false
		}
		return compare(x, s.Op, s.Value)
	case s.Event != "":
		return containsInSample(ep, s.Event)
	case s.LogPattern != "":
		return containsInSample(ep, s.LogPattern)
	default:
		return false
	}
}

func compare(x float64, op string, val float64) bool {
	switch op {
	case "<":
		return x < val
	case "<=":
		return x <= val
	case ">", "":
		return x > val
	case ">=":
		return x >= val
	case "==":
		return x == val
	case "!=":
		return x != val
	default:
		return false
	}
}

func containsInSample(ep *episode.Episode, substr string) bool {
	needle := strings.ToLower(substr)
	for _, e := range ep.Events {
		if strings.Contains(strings.ToLower(e.Msg), needle) {
			return true
		}
	}
	return false
}
