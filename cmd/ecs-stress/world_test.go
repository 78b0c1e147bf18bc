package main

import (
	"bytes"
	"math/rand"
	"testing"
	"time"

	"github.com/plus3/ashecs/ecs"
	"github.com/plus3/ashecs/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestSpawner(t *testing.T) {
	t.Run("unknown component", func(t *testing.T) {
		_, err := newSpawner(rand.New(rand.NewSource(1)), []config.Template{
			{Name: "ghost", Weight: 1, Components: []string{"ectoplasm"}},
		})
		assert.ErrorContains(t, err, "ectoplasm")
	})

	t.Run("spawns template components", func(t *testing.T) {
		spawn, err := newSpawner(rand.New(rand.NewSource(1)), []config.Template{
			{Name: "mortal", Weight: 1, Components: []string{"position", "lifetime"}},
		})
		require.NoError(t, err)

		entity := spawn.spawn()
		assert.True(t, ecs.Has[Position](entity))
		assert.True(t, ecs.Has[Lifetime](entity))
		assert.False(t, ecs.Has[Velocity](entity))
	})

	t.Run("weights", func(t *testing.T) {
		spawn, err := newSpawner(rand.New(rand.NewSource(1)), []config.Template{
			{Name: "never", Weight: 1, Components: []string{"lifetime"}},
			{Name: "mostly", Weight: 99, Components: []string{"position"}},
		})
		require.NoError(t, err)

		positions := 0
		for i := 0; i < 1000; i++ {
			if ecs.Has[Position](spawn.spawn()) {
				positions++
			}
		}
		assert.Greater(t, positions, 950)
	})
}

func TestAgingSystemRespawns(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	spawn, err := newSpawner(rng, config.DefaultTemplates())
	require.NoError(t, err)

	engine := ecs.NewEngine()
	commands := ecs.NewCommands(engine)
	engine.AddSystem(newAgingSystem(commands, spawn), agingPriority)

	mortal := ecs.NewEntity().Add(&Lifetime{Remaining: 0.5})
	engine.AddEntity(mortal)

	engine.Update(1)

	assert.False(t, engine.HasEntity(mortal))
	assert.Equal(t, 1, engine.EntityCount())
}

func TestRun(t *testing.T) {
	cfg := config.Defaults()
	cfg.Run.Duration = 50 * time.Millisecond
	cfg.Run.Entities = 200
	cfg.Run.ChurnPerFrame = 10
	cfg.Run.Seed = 1
	cfg.Run.ReportInterval = 10 * time.Millisecond

	report, err := run(cfg, config.DefaultTemplates(), zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Positive(t, report.TotalUpdates)
	assert.Equal(t, 200, report.Engine.EntityCount)
	assert.Equal(t, 2, report.Engine.FamilyCount)
	assert.Len(t, report.Engine.Systems, 3)

	var out bytes.Buffer
	require.NoError(t, report.Generate(&out))
	assert.Contains(t, out.String(), "Live Entities:** 200")
}
