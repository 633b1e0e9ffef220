package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/musicscripts/internal/labeled"
)

func constant(v float64) Handler {
	return func(context.Context, Querier, Source) (labeled.Array, error) {
		return labeled.Full(v)
	}
}

type testModule struct{ name string }

func (m testModule) Register(s *Set) {
	s.Fields().Register(m.name, constant(1))
	s.Profiles().Register(m.name, constant(2))
}

func TestRegistry_RegisterReturnsPrevious(t *testing.T) {
	t.Parallel()

	// Arrange
	r := New(Field)

	// Act
	_, replaced := r.Register("x", constant(1))
	prev, replacedAgain := r.Register("x", constant(2))

	// Assert
	assert.False(t, replaced)
	require.True(t, replacedAgain)
	old, err := prev(context.Background(), nil, nil)
	require.NoError(t, err)
	v, err := labeled.Scalar(context.Background(), old)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v, "previous handler is the first one")

	h, ok := r.Lookup("x")
	require.True(t, ok)
	cur, err := h(context.Background(), nil, nil)
	require.NoError(t, err)
	v, err = labeled.Scalar(context.Background(), cur)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v, "last write wins")
}

func TestRegistry_LookupMiss(t *testing.T) {
	t.Parallel()

	_, ok := New(Profile).Lookup("absent")
	assert.False(t, ok)
}

func TestRegistry_NilHandlerPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { New(Field).Register("x", nil) })
}

func TestSet_KindsAreIndependent(t *testing.T) {
	t.Parallel()

	s := NewSetFrom(testModule{name: "vrms"})

	assert.Equal(t, []string{"vrms"}, s.Fields().Names())
	assert.Equal(t, []string{"vrms"}, s.Profiles().Names())
	assert.Empty(t, s.TimeSeries().Names())
	assert.Empty(t, s.TimeAveragedProfiles().Names())
	assert.Equal(t, TimeSeries, s.TimeSeries().Kind())
	assert.Panics(t, func() { s.Of(Kind(42)) })
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	for _, k := range Kinds {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("bogus")
	assert.Error(t, err)
}
