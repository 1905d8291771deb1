package executor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedup(t *testing.T) {
	d, err := NewDedup(2)
	require.NoError(t, err)

	a := Key(types.DirectionAtoB, []byte{1}, []byte{2})
	b := Key(types.DirectionBtoA, []byte{1}, []byte{2})
	c := Key(types.DirectionAtoB, []byte{1, 2}, nil)
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, a, Key(types.DirectionAtoB, []byte{1}, []byte{2}))

	assert.False(t, d.Seen(a))
	d.Mark(a)
	assert.True(t, d.Seen(a))

	// capacity two evicts the oldest entry
	d.Mark(b)
	d.Mark(c)
	assert.False(t, d.Seen(a))
	assert.True(t, d.Seen(c))
}

func TestLoadABI(t *testing.T) {
	dir := t.TempDir()

	t.Run("BareArray", func(t *testing.T) {
		path := filepath.Join(dir, "bare.json")
		require.NoError(t, os.WriteFile(path, []byte(arbitrageABI), 0o644))
		parsed, err := LoadABI(path)
		require.NoError(t, err)
		assert.Contains(t, parsed.Methods, executeMethod)
	})

	t.Run("Artifact", func(t *testing.T) {
		path := filepath.Join(dir, "artifact.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"contractName":"FlashArbitrage","abi":`+arbitrageABI+`}`), 0o644))
		parsed, err := LoadABI(path)
		require.NoError(t, err)
		assert.Contains(t, parsed.Methods, executeMethod)
	})

	t.Run("MissingMethod", func(t *testing.T) {
		path := filepath.Join(dir, "other.json")
		require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))
		_, err := LoadABI(path)
		assert.ErrorIs(t, err, types.ErrConfiguration)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := LoadABI(filepath.Join(dir, "nope.json"))
		assert.ErrorIs(t, err, types.ErrConfiguration)
	})
}
