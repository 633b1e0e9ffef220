package lazy

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_ComputesOnce(t *testing.T) {
	t.Parallel()

	var v Value[int]
	var calls atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := v.Get(func() (int, error) {
				calls.Add(1)
				return 42, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, 42, got)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, v.Done())
}

func TestValue_ErrorsAreRetried(t *testing.T) {
	t.Parallel()

	var v Value[string]
	boom := errors.New("boom")

	_, err := v.Get(func() (string, error) { return "", boom })
	require.ErrorIs(t, err, boom)
	assert.False(t, v.Done())

	got, err := v.Get(func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}
