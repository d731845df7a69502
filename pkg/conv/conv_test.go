package conv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToFloat64(t *testing.T) {
	for _, v := range []any{1, int64(1), int32(1), uint64(1), float32(1), 1.0, true, " 1 "} {
		f, ok := ToFloat64(v)
		assert.True(t, ok, "%T", v)
		assert.Equal(t, 1.0, f)
	}
	for _, v := range []any{nil, "drama", []int{1}} {
		_, ok := ToFloat64(v)
		assert.False(t, ok, "%v", v)
	}
}

func TestToStrings(t *testing.T) {
	assert.Equal(t, []string{"p1", "42"}, ToStrings([]any{"p1", 42, map[string]any{}}))
	assert.Equal(t, []string{"p1"}, ToStrings([]string{"p1"}))
	assert.Nil(t, ToStrings("p1"))
	assert.Nil(t, ToStrings(nil))
}

func TestGet(t *testing.T) {
	m := map[string]any{"type": "pool", "n": 3.0}
	assert.Equal(t, "pool", Get(m, "type", ""))
	assert.Equal(t, "x", Get(m, "missing", "x"))
	assert.Equal(t, "x", Get(m, "n", "x"))
	assert.Equal(t, "x", Get[string](nil, "type", "x"))
}

func TestInt(t *testing.T) {
	m := map[string]any{"json": 3.0, "yaml": 2, "frac": 2.5, "text": "abc"}
	n, err := Int(m, "json", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = Int(m, "yaml", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = Int(nil, "missing", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = Int(m, "frac", 0)
	assert.Error(t, err)
	_, err = Int(m, "text", 0)
	assert.Error(t, err)
}
