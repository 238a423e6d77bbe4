package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasAny(t *testing.T) {
	assert.True(t, HasAny("Invalid key", "invalid key"))
	assert.True(t, HasAny("ZERO_RESULTS", "no results", "zero_results"))
	assert.False(t, HasAny("Unknown station", "invalid key", "over quota"))
	assert.False(t, HasAny("anything", ""))
	assert.False(t, HasAny("anything"))
}
