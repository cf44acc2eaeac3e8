package incident

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile serializes the incident to "<dir>/<episode_id>.json". Failures
// here are output errors: they propagate and do not roll back any prior
// writes from the same run.
func WriteFile(dir string, inc *Incident) (string, error) {
	data, err := json.MarshalIndent(inc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal incident %s: %w", inc.EpisodeID, err)
	}
	path := filepath.Join(dir, inc.EpisodeID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write incident file %q: %w", path, err)
	}
	return path, nil
}

// ReadFile loads a previously written incident record.
func ReadFile(path string) (*Incident, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read incident file %q: %w", path, err)
	}
	var inc Incident
	if err := json.Unmarshal(data, &inc); err != nil {
		return nil, fmt.Errorf("malformed incident file %q: %w", path, err)
	}
	return &inc, nil
}
