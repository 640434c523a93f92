// Package reference holds the per-subject reference answers that
// student responses are scored against. The built-in corpus covers
// mathematics, science, and english; educators can replace it by
// editing .feedback/reference.yaml.
package reference

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"feedbackgen/internal/logging"

	"gopkg.in/yaml.v3"
)

// Corpus maps subject -> topic -> reference answers.
type Corpus struct {
	Subjects map[string]map[string][]string `yaml:"subjects"`
}

// Default returns the built-in reference corpus.
func Default() *Corpus {
	return &Corpus{
		Subjects: map[string]map[string][]string{
			"mathematics": {
				"algebra": {
					"To solve linear equations, isolate the variable by performing inverse operations on both sides",
					"The quadratic formula is x = (-b ± √(b²-4ac)) / 2a for equations ax² + bx + c = 0",
					"Functions represent relationships between input and output values",
				},
				"geometry": {
					"The Pythagorean theorem states that a² + b² = c² for right triangles",
					"Area of a circle is π × radius squared",
					"Parallel lines never intersect and have the same slope",
				},
			},
			"science": {
				"physics": {
					"Newton's first law states that objects in motion stay in motion unless acted upon by force",
					"Energy cannot be created or destroyed, only transformed from one form to another",
					"Force equals mass times acceleration (F = ma)",
				},
				"chemistry": {
					"Atoms consist of protons, neutrons, and electrons",
					"Chemical reactions involve breaking and forming bonds between atoms",
					"The periodic table organizes elements by atomic number",
				},
			},
			"english": {
				"literature": {
					"Theme is the central message or meaning of a literary work",
					"Character development shows how characters change throughout a story",
					"Symbolism uses objects or actions to represent deeper meanings",
				},
				"grammar": {
					"Subjects perform the action in a sentence while objects receive it",
					"Proper punctuation helps clarify meaning and structure",
					"Active voice makes writing more direct and engaging",
				},
			},
		},
	}
}

// Load reads a corpus from a YAML file. A missing file returns the
// built-in defaults.
func Load(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.FeedbackDebug("reference corpus %s not found, using defaults", path)
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read reference corpus: %w", err)
	}

	var c Corpus
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse reference corpus: %w", err)
	}
	if len(c.Subjects) == 0 {
		return nil, fmt.Errorf("reference corpus %s has no subjects", path)
	}

	logging.Feedback("loaded reference corpus from %s (%d subjects)", path, len(c.Subjects))
	return &c, nil
}

// Save writes the corpus as YAML.
func (c *Corpus) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal reference corpus: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write reference corpus: %w", err)
	}
	return nil
}

// Flatten returns every reference answer for a subject across all
// topics, in stable topic order. Subject lookup is case-insensitive.
// Returns nil for unknown subjects.
func (c *Corpus) Flatten(subject string) []string {
	topics, ok := c.Subjects[strings.ToLower(subject)]
	if !ok {
		return nil
	}

	names := make([]string, 0, len(topics))
	for name := range topics {
		names = append(names, name)
	}
	sort.Strings(names)

	var refs []string
	for _, name := range names {
		refs = append(refs, topics[name]...)
	}
	return refs
}

// HasSubject reports whether the corpus covers a subject.
func (c *Corpus) HasSubject(subject string) bool {
	_, ok := c.Subjects[strings.ToLower(subject)]
	return ok
}

// SubjectNames returns the sorted list of known subjects.
func (c *Corpus) SubjectNames() []string {
	names := make([]string, 0, len(c.Subjects))
	for name := range c.Subjects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllAnswers returns every reference answer across all subjects, in
// stable subject/topic order. Used to warm the vector cache.
func (c *Corpus) AllAnswers() []string {
	var all []string
	for _, subject := range c.SubjectNames() {
		all = append(all, c.Flatten(subject)...)
	}
	return all
}
