package musicdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(i int) *int { return &i }

func TestSlice_Indices(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		s    Slice
		want []int
	}{
		"all":               {s: All, want: []int{0, 1, 2, 3, 4}},
		"span past the end": {s: Span(3, 20), want: []int{3, 4}},
		"negative start":    {s: Slice{Start: ptr(-2)}, want: []int{3, 4}},
		"step":              {s: Slice{Step: 2}, want: []int{0, 2, 4}},
		"reverse":           {s: Slice{Step: -1}, want: []int{4, 3, 2, 1, 0}},
		"reverse bounded":   {s: Slice{Start: ptr(3), Stop: ptr(0), Step: -2}, want: []int{3, 1}},
		"empty":             {s: Span(4, 2), want: nil},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.s.indices(5))
		})
	}
}

func TestParseItems(t *testing.T) {
	t.Parallel()

	items, err := ParseItems("0, 3:20, -1, ::10")
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, Index(0), items[0])
	assert.Equal(t, "3:20", items[1].(Slice).String())
	assert.Equal(t, Index(-1), items[2])
	assert.Equal(t, "::10", items[3].(Slice).String())

	all, err := ParseItems("")
	require.NoError(t, err)
	assert.Equal(t, []Item{All}, all)

	for _, bad := range []string{"x", "1:2:3:4", "::0", "a:b"} {
		_, err := ParseItems(bad)
		assert.Error(t, err, bad)
	}
}

func TestSlice_Bounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		slice             Slice
		start, stop, step int
	}{
		{name: "all", slice: All, start: 0, stop: 10, step: 1},
		{name: "span past end", slice: Span(3, 20), start: 3, stop: 10, step: 1},
		{name: "reversed", slice: Slice{Step: -2}, start: 9, stop: -1, step: -2},
		{name: "negative start", slice: Slice{Start: ptr(-3)}, start: 7, stop: 10, step: 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			start, stop, step := tc.slice.Bounds(10)
			assert.Equal(t, []int{tc.start, tc.stop, tc.step}, []int{start, stop, step})
		})
	}
}
