package profiles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/musicscripts/internal/labeled"
	"github.com/vk/musicscripts/internal/registry"
	"github.com/vk/musicscripts/internal/resolve"
	"github.com/vk/musicscripts/internal/testutil"
	"github.com/vk/musicscripts/modules/kinematics"
)

func TestVrms(t *testing.T) {
	t.Parallel()

	// Arrange
	ctx := context.Background()
	res := resolve.New(registry.NewSetFrom(&kinematics.Module{}, &Module{}))
	src := testutil.UniformSource(t, 4, 6, []float64{0, 1, 2}, map[string]float64{
		"density": 1, "vel_1": 3, "vel_2": 4,
	})

	// Act
	prof, err := res.Profile(ctx, "vrms", src)
	require.NoError(t, err)
	series, err := res.TimeSeries(ctx, "vrms", src)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, []int{3, 4}, labeled.Shape(prof))
	testutil.AssertUniform(t, prof, 5, 1e-12)
	testutil.AssertUniform(t, series, 5, 1e-12)
}

func TestVrms_IsNotAField(t *testing.T) {
	t.Parallel()

	res := resolve.New(registry.NewSetFrom(&kinematics.Module{}, &Module{}))
	src := testutil.UniformSource(t, 2, 2, nil, map[string]float64{"vel_1": 1, "vel_2": 1})

	_, err := res.Field(context.Background(), "vrms", src)
	assert.ErrorIs(t, err, resolve.ErrNotFound)
}
