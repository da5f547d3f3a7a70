package scenario

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNoFixtures is returned for an empty fixture set.
var ErrNoFixtures = errors.New("no fixtures")

//go:embed fixtures.json
var defaultFixtures []byte

// Fixture is a pair of input text and its expected anonymized form.
type Fixture struct {
	Name     string `json:"name"`
	Input    string `json:"input"`
	Expected string `json:"expected"`
}

// DefaultFixtures returns embedded fixtures.
func DefaultFixtures() []Fixture {
	f, err := ParseFixtures(defaultFixtures)
	if err != nil {
		panic(fmt.Sprintf("invalid embedded fixtures: %v", err))
	}

	return f
}

// LoadFixtures reads fixtures from JSON file.
func LoadFixtures(path string) ([]Fixture, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}

	return ParseFixtures(data)
}

// ParseFixtures decodes JSON array of fixtures.
func ParseFixtures(data []byte) ([]Fixture, error) {
	var f []Fixture

	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode fixtures: %w", err)
	}

	if len(f) == 0 {
		return nil, ErrNoFixtures
	}

	for i, fx := range f {
		if fx.Name == "" {
			f[i].Name = fmt.Sprintf("fixture_%d", i)
		}
	}

	return f, nil
}
