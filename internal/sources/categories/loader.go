package categories

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and parsing of categories.yaml
type Loader struct {
	filePath string
}

// NewLoader creates a new categories loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Path returns the file being loaded
func (l *Loader) Path() string {
	return l.filePath
}

// Load reads and parses the categories file.
// ${VAR} references are expanded from the environment first.
func (l *Loader) Load() (Config, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read categories file: %w", err)
	}

	data = []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse categories yaml: %w", err)
	}

	return config, nil
}
