package config_test

import (
	"testing"

	"github.com/plus3/ashecs/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTemplates(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		path := writeFile(t, "templates.yaml", `
- name: ship
  weight: 2
  components: [position, velocity]
- name: beacon
  weight: 1
  components: [position]
`)
		templates, err := config.LoadTemplates(path)
		require.NoError(t, err)
		require.Len(t, templates, 2)
		assert.Equal(t, config.Template{
			Name:       "ship",
			Weight:     2,
			Components: []string{"position", "velocity"},
		}, templates[0])
	})

	t.Run("rejected tables", func(t *testing.T) {
		tests := []struct {
			name    string
			content string
			errMsg  string
		}{
			{"empty", "[]", "no templates"},
			{"missing name", "- weight: 1\n  components: [position]", "missing name"},
			{"duplicate", "- {name: a, weight: 1, components: [position]}\n- {name: a, weight: 1, components: [position]}", "duplicate"},
			{"zero weight", "- {name: a, components: [position]}", "weight"},
			{"no components", "- {name: a, weight: 1}", "no components"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := config.LoadTemplates(writeFile(t, "templates.yaml", tt.content))
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			})
		}
	})

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, config.ValidateTemplates(config.DefaultTemplates()))
	})
}
