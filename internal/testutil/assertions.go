package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/musicscripts/internal/labeled"
)

// Eval materializes a and fails the test on error.
func Eval(t *testing.T, a labeled.Array) *labeled.Dense {
	t.Helper()
	d, err := a.Eval(context.Background())
	require.NoError(t, err)
	return d
}

// AssertUniform checks that every element of a is within tol of want.
func AssertUniform(t *testing.T, a labeled.Array, want, tol float64) {
	t.Helper()
	d := Eval(t, a)
	require.NotEmpty(t, d.Values())
	for i, v := range d.Values() {
		require.InDelta(t, want, v, tol, "element %d", i)
	}
}
