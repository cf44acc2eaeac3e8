package rcarules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a rule file: a YAML list of rules. An empty file yields zero
// rules, not an error; a file that cannot be read, or malformed top-level
// YAML, is an error.
func Load(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file %q: %w", path, err)
	}
	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("malformed rule file %q: %w", path, err)
	}
	return rules, nil
}
