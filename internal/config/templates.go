package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Template describes one kind of entity the stress runner spawns.
type Template struct {
	Name       string   `yaml:"name"`
	Weight     int      `yaml:"weight"`
	Components []string `yaml:"components"`
}

// LoadTemplates loads a YAML list of templates.
func LoadTemplates(path string) ([]Template, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	var templates []Template
	if err := yaml.Unmarshal(raw, &templates); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if err := ValidateTemplates(templates); err != nil {
		return nil, fmt.Errorf("templates %s: %w", path, err)
	}
	return templates, nil
}

// DefaultTemplates is the built-in template table.
func DefaultTemplates() []Template {
	return []Template{
		{Name: "mover", Weight: 5, Components: []string{"position", "velocity"}},
		{Name: "mortal", Weight: 3, Components: []string{"position", "velocity", "lifetime"}},
		{Name: "marker", Weight: 2, Components: []string{"position"}},
	}
}

// ValidateTemplates checks names, weights and component lists.
func ValidateTemplates(templates []Template) error {
	if len(templates) == 0 {
		return errors.New("no templates")
	}
	seen := make(map[string]bool, len(templates))
	for i, t := range templates {
		if t.Name == "" {
			return fmt.Errorf("template %d: missing name", i)
		}
		if seen[t.Name] {
			return fmt.Errorf("template %q: duplicate name", t.Name)
		}
		seen[t.Name] = true
		if t.Weight <= 0 {
			return fmt.Errorf("template %q: weight must be positive", t.Name)
		}
		if len(t.Components) == 0 {
			return fmt.Errorf("template %q: no components", t.Name)
		}
	}
	return nil
}
