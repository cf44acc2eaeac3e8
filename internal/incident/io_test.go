package incident

import (
	"testing"
	"time"

	"github.com/kcalliga/rca-core/internal/episode"
	"github.com/kcalliga/rca-core/internal/rcarules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenReadRoundTrip(t *testing.T) {
	ep := &episode.Episode{
		EpisodeID: "123::0000001",
		Start:     time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		End:       time.Date(2024, 1, 1, 10, 10, 0, 0, time.UTC),
		Entities:  map[string][]string{"pod": {"pod/prod/api-1"}},
		Features:  map[string]float64{"count": 3},
		Events: []episode.Event{
			{TS: time.Date(2024, 1, 1, 10, 1, 0, 0, time.UTC), Msg: "boom", HasCode: true, Code: 500},
		},
	}
	cands := []rcarules.CandidateRoot{{Component: "pod/prod/api-1", Reason: "x", Score: 0.5, ScoreBreakdown: map[string]float64{"temporal": 0.5}}}
	inc := FromEpisode(ep, cands)

	dir := t.TempDir()
	path, err := WriteFile(dir, inc)
	require.NoError(t, err)

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, inc.EpisodeID, got.EpisodeID)
	assert.Equal(t, inc.Start, got.Start)
	assert.Equal(t, inc.Candidates[0].Component, got.Candidates[0].Component)
	require.Len(t, got.Exemplars, 1)
	assert.Equal(t, 500, *got.Exemplars[0].Code)
}

func TestFromEpisode_ExemplarsBoundedAt10(t *testing.T) {
	ep := &episode.Episode{EpisodeID: "e1", Entities: map[string][]string{}, Features: map[string]float64{}}
	for i := 0; i < 25; i++ {
		ep.Events = append(ep.Events, episode.Event{Msg: "x"})
	}
	inc := FromEpisode(ep, nil)
	assert.Len(t, inc.Exemplars, 10)
	assert.Empty(t, inc.Candidates)
}
