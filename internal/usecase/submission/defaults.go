package submission

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults is the submission profile applied when a request leaves a field
// unset. Operators ship one per deployment to keep submissions uniform.
type Defaults struct {
	Score      *int     `yaml:"score"`
	Confidence *int     `yaml:"confidence"`
	Labels     []string `yaml:"labels"`
	MarkingIDs []string `yaml:"markingIds"`
}

// LoadDefaults reads a submission profile from a YAML file. An empty path
// means no profile.
func LoadDefaults(path string) (Defaults, error) {
	if path == "" {
		return Defaults{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Defaults{}, fmt.Errorf("read defaults profile: %w", err)
	}

	var d Defaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Defaults{}, fmt.Errorf("parse defaults profile: %w", err)
	}

	return d, nil
}
