package dmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNopColorizerDeclines(t *testing.T) {
	var c Colorizer = NopColorizer{}
	changed, err := c.Convert(nil, nil, nil)
	assert.False(t, changed)
	assert.ErrorIs(t, err, ErrColorizerMiss)
}
