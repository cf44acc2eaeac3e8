// Package incident defines the on-disk output unit produced per episode and
// its JSON (de)serialization.
package incident

import (
	"time"

	"github.com/kcalliga/rca-core/internal/episode"
	"github.com/kcalliga/rca-core/internal/rcarules"
)

// Exemplar is one sampled log line surfaced in an incident record.
type Exemplar struct {
	TS     time.Time `json:"ts"`
	Source string    `json:"source"`
	NS     string    `json:"ns,omitempty"`
	Pod    string    `json:"pod,omitempty"`
	Node   string    `json:"node,omitempty"`
	Code   *int      `json:"code,omitempty"`
	Msg    string    `json:"msg"`
}

const maxExemplars = 10

// Incident is the serialized output unit for one episode.
type Incident struct {
	EpisodeID  string                      `json:"episode_id"`
	Start      time.Time                   `json:"start"`
	End        time.Time                   `json:"end"`
	Entities   map[string][]string         `json:"entities"`
	Features   map[string]float64          `json:"features"`
	Candidates []rcarules.CandidateRoot    `json:"candidates"`
	Exemplars  []Exemplar                  `json:"exemplars"`
}

// FromEpisode converts an episode and its evaluated candidates into the
// output shape, truncating the exemplar list to the first 10 events.
func FromEpisode(ep *episode.Episode, candidates []rcarules.CandidateRoot) *Incident {
	n := len(ep.Events)
	if n > maxExemplars {
		n = maxExemplars
	}
	exemplars := make([]Exemplar, 0, n)
	for i := 0; i < n; i++ {
		e := ep.Events[i]
		ex := Exemplar{TS: e.TS, Source: e.Source, NS: e.Namespace, Pod: e.Pod, Node: e.Node, Msg: e.Msg}
		if e.HasCode {
			code := e.Code
			ex.Code = &code
		}
		exemplars = append(exemplars, ex)
	}
	if candidates == nil {
		candidates = []rcarules.CandidateRoot{}
	}
	return &Incident{
		EpisodeID:  ep.EpisodeID,
		Start:      ep.Start,
		End:        ep.End,
		Entities:   ep.Entities,
		Features:   ep.Features,
		Candidates: candidates,
		Exemplars:  exemplars,
	}
}
