package report

import (
	"testing"
	"time"

	"github.com/kcalliga/rca-core/internal/incident"
	"github.com/kcalliga/rca-core/internal/rcarules"
	"github.com/stretchr/testify/assert"
)

func sampleIncident() *incident.Incident {
	return &incident.Incident{
		EpisodeID: "123::0000001",
		Start:     time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		End:       time.Date(2024, 1, 1, 10, 10, 0, 0, time.UTC),
		Entities:  map[string][]string{"pod": {"pod/prod/api-1"}},
		Features:  map[string]float64{"error_ratio": 1, "count": 2},
		Candidates: []rcarules.CandidateRoot{
			{Component: "node/node-a", Reason: "high error ratio near node", Score: 0.74},
		},
		Exemplars: []incident.Exemplar{
			{TS: time.Date(2024, 1, 1, 10, 1, 0, 0, time.UTC), Source: "events", NS: "prod", Pod: "api-1", Msg: "ImagePullBackOff seen"},
		},
	}
}

func TestToMarkdown_ContainsSections(t *testing.T) {
	md := ToMarkdown(sampleIncident())
	assert.Contains(t, md, "# Incident 123::0000001")
	assert.Contains(t, md, "## Ranked candidates")
	assert.Contains(t, md, "node/node-a")
	assert.Contains(t, md, "## Log exemplars")
	assert.Contains(t, md, "ImagePullBackOff seen")
}

func TestToMarkdown_NoCandidatesNotesEmpty(t *testing.T) {
	inc := sampleIncident()
	inc.Candidates = nil
	md := ToMarkdown(inc)
	assert.Contains(t, md, "no candidates matched")
}

func TestRender_ProducesNonEmptyOutput(t *testing.T) {
	out, err := Render(sampleIncident())
	assert.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestRender_BannerReflectsCandidateCount(t *testing.T) {
	withCandidate, err := Render(sampleIncident())
	assert.NoError(t, err)
	assert.Contains(t, withCandidate, "1 candidate(s)")

	noCandidates := sampleIncident()
	noCandidates.Candidates = nil
	out, err := Render(noCandidates)
	assert.NoError(t, err)
	assert.Contains(t, out, "0 candidate(s)")
}
