package episode

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return tm
}

func TestBuild_WindowsAndGroups(t *testing.T) {
	present := ColumnsPresent{Namespace: true, Pod: true, Level: true, Code: true}
	events := []Event{
		{TS: mustParse(t, "2024-01-01T10:00:00Z"), Namespace: "prod", Pod: "api-1", Level: "error", Code: 500, HasCode: true, Msg: "boom"},
		{TS: mustParse(t, "2024-01-01T10:05:00Z"), Namespace: "prod", Pod: "api-1", Level: "info", Code: 200, HasCode: true, Msg: "ok"},
		{TS: mustParse(t, "2024-01-01T10:15:00Z"), Namespace: "prod", Pod: "api-2", Level: "info", Code: 200, HasCode: true, Msg: "ok"},
	}

	eps := Build(events, 10*time.Minute, []string{"namespace", "pod"}, present)
	require.Len(t, eps, 2)

	first := eps[0]
	assert.Equal(t, mustParse(t, "2024-01-01T10:00:00Z"), first.Start)
	assert.Equal(t, 2.0, first.Features["count"])
	assert.InDelta(t, 0.5, first.Features["error_ratio"], 1e-9)
	assert.Equal(t, 1.0, first.Features["http5xx"])
	assert.Equal(t, []string{"prod"}, first.Entities["namespace"])
	assert.Equal(t, []string{"api-1"}, first.Entities["pod"])

	second := eps[1]
	assert.Equal(t, mustParse(t, "2024-01-01T10:10:00Z"), second.Start)
	assert.Equal(t, 1.0, second.Features["count"])
}

func TestBuild_EventSampleBoundedAndTruncated(t *testing.T) {
	present := ColumnsPresent{}
	longMsg := strings.Repeat("x", 500)
	var events []Event
	base := mustParse(t, "2024-01-01T00:00:00Z")
	for i := 0; i < 250; i++ {
		events = append(events, Event{TS: base.Add(time.Duration(i) * time.Second), Msg: longMsg})
	}
	eps := Build(events, 10*time.Minute, nil, present)
	require.Len(t, eps, 1)
	assert.Len(t, eps[0].Events, maxEventSample)
	assert.Len(t, eps[0].Events[0].Msg, 400)
}

func TestBuild_NoKeyColumnsFallsBackToAll(t *testing.T) {
	events := []Event{
		{TS: mustParse(t, "2024-01-01T00:00:00Z")},
		{TS: mustParse(t, "2024-01-01T00:01:00Z")},
	}
	eps := Build(events, 10*time.Minute, []string{"namespace", "pod", "node"}, ColumnsPresent{})
	require.Len(t, eps, 1)
	assert.Equal(t, 2.0, eps[0].Features["count"])
}

func TestBuild_EmptyInput(t *testing.T) {
	eps := Build(nil, 10*time.Minute, nil, ColumnsPresent{})
	assert.Empty(t, eps)
}

func TestBuild_EventsWithinWindowBounds(t *testing.T) {
	events := []Event{
		{TS: mustParse(t, "2024-01-01T10:03:00Z")},
		{TS: mustParse(t, "2024-01-01T10:07:00Z")},
	}
	eps := Build(events, 10*time.Minute, nil, ColumnsPresent{})
	require.Len(t, eps, 1)
	for _, e := range eps[0].Events {
		assert.True(t, !e.TS.Before(eps[0].Start) && e.TS.Before(eps[0].End))
	}
}

func TestLoadCSV_MissingTSColumnIsFatal(t *testing.T) {
	_, _, err := LoadCSV(strings.NewReader("namespace,pod\nprod,api-1\n"))
	assert.ErrorIs(t, err, ErrMissingTimestampColumn{})
}

func TestLoadCSV_OptionalColumnsTolerated(t *testing.T) {
	events, present, err := LoadCSV(strings.NewReader("ts,namespace\n2024-01-01T10:00:00Z,prod\n"))
	require.NoError(t, err)
	assert.True(t, present.Namespace)
	assert.False(t, present.Pod)
	require.Len(t, events, 1)
	assert.Equal(t, "prod", events[0].Namespace)
}

func TestLoadCSV_UnparseableTSDropsRowNotFatal(t *testing.T) {
	events, _, err := LoadCSV(strings.NewReader("ts\nnot-a-date\n2024-01-01T10:00:00Z\n"))
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestParseTimestamp_LenientFallback(t *testing.T) {
	ts, ok := ParseTimestamp("2024-01-01 10:00:00")
	require.True(t, ok)
	assert.Equal(t, 2024, ts.Year())
}
