package episode

import (
	"io"

	"github.com/parquet-go/parquet-go"
)

// parquetRow mirrors the event table's columnar schema. Optional columns use
// pointer types so parquet-go's schema reflection can tell "column absent
// from this file" (nil pointer type is never populated) apart from "column
// present but null for this row" (pointer value nil at read time) -- the
// loader further distinguishes the two via the reader's schema inspection.
type parquetRow struct {
	TS               string   `parquet:"ts"`
	Source           string   `parquet:"source,optional"`
	Namespace        *string  `parquet:"namespace,optional"`
	Pod              *string  `parquet:"pod,optional"`
	Node             *string  `parquet:"node,optional"`
	Level            *string  `parquet:"level,optional"`
	Verb             string   `parquet:"verb,optional"`
	Code             *int64   `parquet:"code,optional"`
	Route            *string  `parquet:"route,optional"`
	Msg              string   `parquet:"msg,optional"`
	ContainerRestart *float64 `parquet:"container_restart,optional"`
	RolloutInWindow  *float64 `parquet:"rollout_in_window,optional"`
}

// LoadParquet reads an Apache Parquet event table. Column presence is
// determined from the file's schema: a field absent from the schema is
// "not present" for episode.Build's purposes, distinct from a present
// column that happens to be null on every row.
func LoadParquet(r io.ReaderAt, size int64) ([]Event, ColumnsPresent, error) {
	file, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, ColumnsPresent{}, err
	}
	schema := file.Schema()
	if schema.Lookup("ts") == nil {
		return nil, ColumnsPresent{}, ErrMissingTimestampColumn{}
	}

	present := ColumnsPresent{
		Namespace:        schema.Lookup("namespace") != nil,
		Pod:              schema.Lookup("pod") != nil,
		Node:             schema.Lookup("node") != nil,
		Route:            schema.Lookup("route") != nil,
		Level:            schema.Lookup("level") != nil,
		Code:             schema.Lookup("code") != nil,
		ContainerRestart: schema.Lookup("container_restart") != nil,
		RolloutInWindow:  schema.Lookup("rollout_in_window") != nil,
	}

	reader := parquet.NewGenericReader[parquetRow](file)
	defer reader.Close()

	rows := make([]parquetRow, 128)
	var events []Event
	for {
		n, err := reader.Read(rows)
		for i := 0; i < n; i++ {
			row := rows[i]
			ts, ok := ParseTimestamp(row.TS)
			if !ok {
				continue
			}
			e := Event{TS: ts, Source: row.Source, Verb: row.Verb, Msg: row.Msg}
			if present.Namespace && row.Namespace != nil {
				e.Namespace = *row.Namespace
			}
			if present.Pod && row.Pod != nil {
				e.Pod = *row.Pod
			}
			if present.Node && row.Node != nil {
				e.Node = *row.Node
			}
			if present.Route && row.Route != nil {
				e.Route = *row.Route
			}
			if present.Level && row.Level != nil {
				e.Level = *row.Level
			}
			if present.Code && row.Code != nil {
				e.Code = int(*row.Code)
				e.HasCode = true
			}
			if present.ContainerRestart && row.ContainerRestart != nil {
				e.ContainerRestart = *row.ContainerRestart
			}
			if present.RolloutInWindow && row.RolloutInWindow != nil {
				e.RolloutInWindow = *row.RolloutInWindow
			}
			events = append(events, e)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, ColumnsPresent{}, err
		}
	}
	return events, present, nil
}
