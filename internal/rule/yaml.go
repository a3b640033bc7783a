package rule

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileDoc is the on-disk shape of a definition file. Rules reference
// entities by name; references are resolved during Load.
type fileDoc struct {
	Entities []Entity   `yaml:"entities"`
	Rules    []fileRule `yaml:"rules"`
}

type fileRule struct {
	Name      string   `yaml:"name"`
	Entity    string   `yaml:"entity"`
	Operation Op       `yaml:"operation"`
	Watch     []string `yaml:"watch"`
	Label     string   `yaml:"label"`
}

// Load reads a YAML definition file and returns validated rule definitions
// with entity references resolved.
//
// File shape:
//
//	entities:
//	  - name: audio
//	    primary_key: [id]
//	    columns:
//	      - {name: id, type: integer}
//	      - {name: sha1, type: text}
//	rules:
//	  - name: audio_update
//	    entity: audio
//	    operation: update
//	    watch: [sha1]
func Load(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load definitions: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates definition file contents.
func Parse(data []byte) ([]Definition, error) {
	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse definitions: %w", err)
	}

	entities := make(map[string]Entity, len(doc.Entities))
	for _, e := range doc.Entities {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("parse definitions: %w", err)
		}
		if _, dup := entities[e.Name]; dup {
			return nil, fmt.Errorf("parse definitions: duplicate entity %q", e.Name)
		}
		entities[e.Name] = e
	}

	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("parse definitions: no rules declared")
	}

	defs := make([]Definition, 0, len(doc.Rules))
	names := make(map[string]bool, len(doc.Rules))
	for _, r := range doc.Rules {
		entity, ok := entities[r.Entity]
		if !ok {
			return nil, fmt.Errorf("parse definitions: rule %q references unknown entity %q", r.Name, r.Entity)
		}
		if names[r.Name] {
			return nil, fmt.Errorf("parse definitions: duplicate rule %q", r.Name)
		}
		names[r.Name] = true

		def := Definition{
			Name:      r.Name,
			Entity:    entity,
			Operation: r.Operation,
			Watch:     r.Watch,
			Label:     r.Label,
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("parse definitions: %w", err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}
