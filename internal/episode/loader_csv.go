package episode

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
)

// LoadCSV reads a header-first CSV event table. The only required column is
// ts; every other recognized column is optional. A row whose ts cannot be
// parsed is dropped, not fatal. Returns ErrMissingTimestampColumn if the ts
// column itself is absent from the header.
func LoadCSV(r io.Reader) ([]Event, ColumnsPresent, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, ColumnsPresent{}, ErrMissingTimestampColumn{}
		}
		return nil, ColumnsPresent{}, err
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	tsIdx, ok := idx["ts"]
	if !ok {
		return nil, ColumnsPresent{}, ErrMissingTimestampColumn{}
	}

	present := ColumnsPresent{
		Namespace:        hasCol(idx, "namespace"),
		Pod:              hasCol(idx, "pod"),
		Node:             hasCol(idx, "node"),
		Route:            hasCol(idx, "route"),
		Level:            hasCol(idx, "level"),
		Code:             hasCol(idx, "code"),
		ContainerRestart: hasCol(idx, "container_restart"),
		RolloutInWindow:  hasCol(idx, "rollout_in_window"),
	}

	var events []Event
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, ColumnsPresent{}, err
		}

		rawTS := cell(rec, tsIdx)
		ts, ok := ParseTimestamp(rawTS)
		if !ok {
			continue
		}

		e := Event{
			TS:     ts,
			Source: cellAt(rec, idx, "source"),
			Msg:    cellAt(rec, idx, "msg"),
			Verb:   cellAt(rec, idx, "verb"),
		}
		if present.Namespace {
			e.Namespace = cellAt(rec, idx, "namespace")
		}
		if present.Pod {
			e.Pod = cellAt(rec, idx, "pod")
		}
		if present.Node {
			e.Node = cellAt(rec, idx, "node")
		}
		if present.Route {
			e.Route = cellAt(rec, idx, "route")
		}
		if present.Level {
			e.Level = cellAt(rec, idx, "level")
		}
		if present.Code {
			if v := cellAt(rec, idx, "code"); v != "" {
				if n, err := strconv.Atoi(v); err == nil {
					e.Code = n
					e.HasCode = true
				}
			}
		}
		if present.ContainerRestart {
			if v := cellAt(rec, idx, "container_restart"); v != "" {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					e.ContainerRestart = f
				}
			}
		}
		if present.RolloutInWindow {
			if v := cellAt(rec, idx, "rollout_in_window"); v != "" {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					e.RolloutInWindow = f
				}
			}
		}
		events = append(events, e)
	}

	return events, present, nil
}

func hasCol(idx map[string]int, name string) bool {
	_, ok := idx[name]
	return ok
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func cellAt(rec []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok {
		return ""
	}
	return cell(rec, i)
}
