package episode

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"time"

	"github.com/kcalliga/rca-core/internal/logging"
)

// ColumnsPresent records which optional columns exist in the source table,
// as opposed to merely being empty for every row. Missing columns are
// tolerated per the builder's failure semantics; this struct is how a
// loader communicates "this column does not exist" to the builder.
type ColumnsPresent struct {
	Namespace        bool
	Pod              bool
	Node             bool
	Route            bool
	Level            bool
	Code             bool
	ContainerRestart bool
	RolloutInWindow  bool
}

var defaultKeyColumns = []string{"namespace", "pod", "node"}

// DefaultKeyColumns returns a copy of the default grouping key columns.
func DefaultKeyColumns() []string {
	out := make([]string, len(defaultKeyColumns))
	copy(out, defaultKeyColumns)
	return out
}

const maxEventSample = 200

// Build partitions events into aligned, half-open windows of duration
// `window`, groups each window's events by the key columns present, and
// computes per-group features. events need not be pre-sorted.
func Build(events []Event, window time.Duration, keys []string, present ColumnsPresent) []Episode {
	logger := logging.GetLogger("episode")
	if window <= 0 {
		window = 10 * time.Minute
	}
	if len(keys) == 0 {
		keys = DefaultKeyColumns()
	}
	keyCols := intersectKeyColumns(keys, present)

	sorted := append([]Event(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TS.Before(sorted[j].TS) })

	windows := make(map[int64][]Event)
	for _, e := range sorted {
		ws := windowStart(e.TS, window)
		windows[ws] = append(windows[ws], e)
	}

	starts := make([]int64, 0, len(windows))
	for ws := range windows {
		starts = append(starts, ws)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	var episodes []Episode
	for _, ws := range starts {
		wdf := windows[ws]
		wstart := time.Unix(0, ws).UTC()
		wend := wstart.Add(window)

		groups := groupBy(wdf, keyCols)
		groupKeys := make([]string, 0, len(groups))
		for gk := range groups {
			groupKeys = append(groupKeys, gk)
		}
		sort.Strings(groupKeys)

		for _, gk := range groupKeys {
			gdf := groups[gk]
			episodes = append(episodes, buildOne(ws, gk, wstart, wend, gdf, present))
		}
	}
	logger.Debug("built %d episodes from %d events across %d windows", len(episodes), len(events), len(windows))
	return episodes
}

func intersectKeyColumns(keys []string, present ColumnsPresent) []string {
	var out []string
	for _, k := range keys {
		switch k {
		case "namespace":
			if present.Namespace {
				out = append(out, k)
			}
		case "pod":
			if present.Pod {
				out = append(out, k)
			}
		case "node":
			if present.Node {
				out = append(out, k)
			}
		}
	}
	return out
}

func windowStart(t time.Time, window time.Duration) int64 {
	n := t.UTC().UnixNano()
	w := window.Nanoseconds()
	if w <= 0 {
		return n
	}
	return n - (n % w)
}

func keyValue(e Event, col string) string {
	switch col {
	case "namespace":
		return e.Namespace
	case "pod":
		return e.Pod
	case "node":
		return e.Node
	}
	return ""
}

// groupBy groups events by the tuple of keyCols values (nulls/empty form
// their own group, same as every other value). With no keyCols, every event
// in the window falls into a single "_all" group.
func groupBy(events []Event, keyCols []string) map[string][]Event {
	groups := make(map[string][]Event)
	if len(keyCols) == 0 {
		groups["_all"] = events
		return groups
	}
	for _, e := range events {
		parts := make([]string, len(keyCols))
		for i, col := range keyCols {
			parts[i] = keyValue(e, col)
		}
		gk := strings.Join(parts, "\x00")
		groups[gk] = append(groups[gk], e)
	}
	return groups
}

func buildOne(windowStartNanos int64, groupKey string, wstart, wend time.Time, gdf []Event, present ColumnsPresent) Episode {
	total := len(gdf)

	var errors int
	if present.Level {
		for _, e := range gdf {
			if e.Level == "error" {
				errors++
			}
		}
	}
	errorRatio := 0.0
	if total > 0 {
		errorRatio = float64(errors) / float64(total)
	}

	var restarts float64
	if present.ContainerRestart {
		for _, e := range gdf {
			restarts += e.ContainerRestart
		}
	}

	var http5xx int
	if present.Code {
		for _, e := range gdf {
			if e.HasCode && e.Code >= 500 {
				http5xx++
			}
		}
	}

	var rolloutInWindow float64
	if present.RolloutInWindow {
		for _, e := range gdf {
			if e.RolloutInWindow > rolloutInWindow {
				rolloutInWindow = e.RolloutInWindow
			}
		}
	}

	features := map[string]float64{
		"count":              float64(total),
		"error_ratio":        errorRatio,
		"restarts":           restarts,
		"http5xx":            float64(http5xx),
		"rollout_in_window":  rolloutInWindow,
	}

	entities := make(map[string][]string)
	collectEntity(entities, gdf, "namespace", present.Namespace, func(e Event) string { return e.Namespace })
	collectEntity(entities, gdf, "pod", present.Pod, func(e Event) string { return e.Pod })
	collectEntity(entities, gdf, "node", present.Node, func(e Event) string { return e.Node })
	collectEntity(entities, gdf, "route", present.Route, func(e Event) string { return e.Route })

	sample := make([]Event, 0, min(total, maxEventSample))
	for i, e := range gdf {
		if i >= maxEventSample {
			break
		}
		ev := e
		if len(ev.Msg) > 400 {
			ev.Msg = ev.Msg[:400]
		}
		sample = append(sample, ev)
	}

	return Episode{
		EpisodeID: episodeID(windowStartNanos, groupKey),
		Start:     wstart,
		End:       wend,
		Entities:  entities,
		Features:  features,
		Events:    sample,
	}
}

func collectEntity(entities map[string][]string, gdf []Event, name string, colPresent bool, get func(Event) string) {
	if !colPresent {
		return
	}
	seen := make(map[string]struct{})
	var vals []string
	for _, e := range gdf {
		v := get(e)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		vals = append(vals, v)
	}
	if len(vals) > 0 {
		entities[name] = vals
	}
}

// episodeID derives a stable identifier from the window start and a short
// hash of the group key, wide enough (28 bits) to avoid collisions across
// the modest cardinality of groups within a single window.
func episodeID(windowStartNanos int64, groupKey string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(groupKey))
	sum := h.Sum32() & 0xfffffff
	return fmt.Sprintf("%d::%07x", windowStartNanos, sum)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
