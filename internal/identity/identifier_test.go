package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateFixture(t *testing.T) {
	// Known-answer fixture: implementations must agree byte for byte.
	got := Generate("A", "560001", 42)
	assert.Equal(t, "c8dc6ba15652d9cf07b61b9dd6494524108d063d09ea2e2225c52ba91fc73409", got)
}

func TestGenerateDeterministic(t *testing.T) {
	first := Generate("Rajajinagar", "560010", 7)
	second := Generate("Rajajinagar", "560010", 7)
	require.Equal(t, first, second)
	assert.Equal(t, "802058b408cf04660ad27d97051c62b56d1e2c9a2f3fe7ba23e90f818e15a529", first)
	assert.Len(t, first, 64)
}

func TestGenerateDistinctInputs(t *testing.T) {
	base := Generate("A", "560001", 1)
	assert.NotEqual(t, base, Generate("B", "560001", 1))
	assert.NotEqual(t, base, Generate("A", "560002", 1))
	assert.NotEqual(t, base, Generate("A", "560001", 2))
}

func TestGenerateHexOutput(t *testing.T) {
	id := Generate("X", "560001", 1)
	require.Len(t, id, 64)
	for _, r := range id {
		assert.Contains(t, "0123456789abcdef", string(r))
	}
}
