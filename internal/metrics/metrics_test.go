package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/musicscripts/internal/labeled"
	"github.com/vk/musicscripts/internal/registry"
	"github.com/vk/musicscripts/internal/resolve"
	mstest "github.com/vk/musicscripts/internal/testutil"
)

func TestMetrics_ObservesResolver(t *testing.T) {
	t.Parallel()

	// Arrange
	m := New()
	set := registry.NewSetFrom(&mstest.SimpleModule{
		Kind: registry.Field,
		Name: "alias",
		Handler: func(ctx context.Context, q registry.Querier, src registry.Source) (labeled.Array, error) {
			return q.Resolve(ctx, registry.Field, "density", src)
		},
	})
	res := resolve.New(set, resolve.WithObserver(m))
	src := mstest.UniformSource(t, 2, 2, nil, map[string]float64{"density": 1})

	// Act
	_, err := res.Field(context.Background(), "alias", src)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resolutions.WithLabelValues("field", "alias", "handler")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resolutions.WithLabelValues("field", "density", "default")))
}

func TestMetrics_CommandsAndExports(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveCommand("rprof", 10*time.Millisecond, nil)
	m.ObserveCommand("rprof", 20*time.Millisecond, errors.New("boom"))
	m.Exported("csv")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("rprof")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exports.WithLabelValues("csv")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.commands))
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := New()
	m.Exported("nc")
	rec := httptest.NewRecorder()

	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `musicscripts_exports_total{format="nc"} 1`))
}
