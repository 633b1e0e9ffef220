package diag

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/musicscripts/internal/prof1d"
	"github.com/vk/musicscripts/internal/registry"
	"github.com/vk/musicscripts/internal/resolve"
	"github.com/vk/musicscripts/internal/testutil"
	"github.com/vk/musicscripts/modules/kinematics"
	"github.com/vk/musicscripts/modules/profiles"
)

func TestTauConv(t *testing.T) {
	t.Parallel()

	// Arrange: x1 spans [1, 2] in 4 cells, vrms = 5 everywhere.
	ctx := context.Background()
	res := resolve.New(registry.NewSetFrom(&kinematics.Module{}, &profiles.Module{}))
	src := testutil.UniformSource(t, 4, 3, []float64{0, 1, 2}, map[string]float64{
		"vel_1": 3, "vel_2": 4,
	})

	// Act: centers 1.125 and 1.375 are below rcore.
	tau, err := TauConv(ctx, res, src, 1.5)

	// Assert
	require.NoError(t, err)
	assert.InDelta(t, 2*0.25/5, tau, 1e-12)
}

func TestTauConv_NoCoreCell(t *testing.T) {
	t.Parallel()

	res := resolve.New(registry.NewSetFrom(&kinematics.Module{}, &profiles.Module{}))
	src := testutil.UniformSource(t, 4, 3, nil, map[string]float64{"vel_1": 1, "vel_2": 0})

	tau, err := TauConv(context.Background(), res, src, 0.5)

	require.NoError(t, err)
	assert.Equal(t, 0.0, tau)
}

func TestRCore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	body := "rcore rad_surf\n1.5 3\nr_grid\n1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "profile1d.dat"), []byte(body), 0o644))

	rcore, err := RCore(prof1d.New(dir))

	require.NoError(t, err)
	assert.Equal(t, 1.5, rcore)
}
