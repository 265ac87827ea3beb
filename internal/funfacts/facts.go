package funfacts

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoFacts is returned when the fact file is missing, empty, or holds only
// blank entries.
var ErrNoFacts = errors.New("no fun facts available")

type factFile struct {
	Facts []string `yaml:"facts"`
}

// Collection is an in-memory set of fun facts loaded from a YAML file.
type Collection struct {
	facts []string
}

// Load reads the fact file. A missing file yields an empty collection rather
// than an error so the daemon can run without one.
func Load(path string) (*Collection, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Collection{}, nil
		}
		return nil, fmt.Errorf("read fun facts: %w", err)
	}

	var parsed factFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse fun facts: %w", err)
	}

	facts := make([]string, 0, len(parsed.Facts))
	for _, fact := range parsed.Facts {
		if fact = strings.TrimSpace(fact); fact != "" {
			facts = append(facts, fact)
		}
	}
	return &Collection{facts: facts}, nil
}

// Len returns the number of loaded facts.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.facts)
}

// Random returns one fact chosen uniformly at random.
func (c *Collection) Random() (string, error) {
	if c.Len() == 0 {
		return "", ErrNoFacts
	}
	return c.facts[rand.Intn(len(c.facts))], nil
}
