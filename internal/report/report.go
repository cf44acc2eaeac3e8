// Package report renders an incident record as a human-readable Markdown
// document, for terminal viewing or saving alongside the JSON record.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/kcalliga/rca-core/internal/incident"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#BD3612")).
			Padding(0, 1)

	bannerStyleClear = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#000000")).
				Background(lipgloss.Color("#50FA7B")).
				Padding(0, 1)
)

// banner renders a one-line styled severity summary: red when at least one
// candidate was found, green when the rule set matched nothing.
func banner(inc *incident.Incident) string {
	text := fmt.Sprintf(" %s  %d candidate(s) ", inc.EpisodeID, len(inc.Candidates))
	if len(inc.Candidates) == 0 {
		return bannerStyleClear.Render(text)
	}
	return bannerStyle.Render(text)
}

// ToMarkdown builds the Markdown source for an incident: a heading, the
// window and entities, a candidate ranking table, and a log exemplar
// section.
func ToMarkdown(inc *incident.Incident) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Incident %s\n\n", inc.EpisodeID)
	fmt.Fprintf(&b, "**Window:** %s -> %s\n\n", inc.Start.Format("2006-01-02T15:04:05Z"), inc.End.Format("2006-01-02T15:04:05Z"))

	if len(inc.Entities) > 0 {
		b.WriteString("**Entities:**\n\n")
		keys := sortedKeys(inc.Entities)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, strings.Join(inc.Entities[k], ", "))
		}
		b.WriteString("\n")
	}

	if len(inc.Features) > 0 {
		b.WriteString("**Features:**\n\n")
		fkeys := sortedFeatureKeys(inc.Features)
		for _, k := range fkeys {
			fmt.Fprintf(&b, "- %s: %.4f\n", k, inc.Features[k])
		}
		b.WriteString("\n")
	}

	b.WriteString("## Ranked candidates\n\n")
	if len(inc.Candidates) == 0 {
		b.WriteString("_no candidates matched_\n\n")
	} else {
		b.WriteString("| Rank | Component | Score | Reason |\n")
		b.WriteString("|------|-----------|-------|--------|\n")
		for i, c := range inc.Candidates {
			fmt.Fprintf(&b, "| %d | %s | %.4f | %s |\n", i+1, c.Component, c.Score, c.Reason)
		}
		b.WriteString("\n")
	}

	if len(inc.Exemplars) > 0 {
		b.WriteString("## Log exemplars\n\n")
		for _, e := range inc.Exemplars {
			fmt.Fprintf(&b, "- `%s` [%s] %s/%s: %s\n", e.TS.Format("15:04:05"), e.Source, e.NS, e.Pod, e.Msg)
		}
	}

	return b.String()
}

// Render renders the incident's Markdown through glamour for terminal
// display (ANSI styling, word-wrapped at 100 columns).
func Render(inc *incident.Incident) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := r.Render(ToMarkdown(inc))
	if err != nil {
		return "", fmt.Errorf("failed to render incident report: %w", err)
	}
	return banner(inc) + "\n\n" + out, nil
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedFeatureKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
