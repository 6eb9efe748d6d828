package dmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigWithDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	assert.Equal(t, 8, c.QueueDepth)
	assert.IsType(t, NopColorizer{}, c.Colorizer)
	assert.IsType(t, NoopSegmentRenderer{}, c.SegmentRenderer)
	assert.NotNil(t, c.Logger)
}

func TestConfigWithDefaultsPreservesExplicitValues(t *testing.T) {
	c := Config{QueueDepth: 32, SamSystem: true}.withDefaults()
	assert.Equal(t, 32, c.QueueDepth)
	assert.True(t, c.SamSystem)
}
