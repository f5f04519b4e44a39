package docstore

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIndex(t *testing.T, dim int) *FlatIndex {
	t.Helper()

	ix, err := NewFlatIndex(dim)
	require.NoError(t, err)
	return ix
}

func Test_NewFlatIndex_RejectsNonPositiveDimension(t *testing.T) {
	for _, dim := range []int{0, -3} {
		ix, err := NewFlatIndex(dim)
		require.Error(t, err)
		assert.Nil(t, ix)
	}
}

func Test_FlatIndex_AddAndCount(t *testing.T) {
	ix := newIndex(t, 3)
	assert.Equal(t, 0, ix.Count())

	require.NoError(t, ix.Add([][]float32{
		{1, 0, 0},
		{0, 1, 0},
	}))
	require.NoError(t, ix.Add([][]float32{
		{0, 0, 1},
	}))

	assert.Equal(t, 3, ix.Count())
	assert.Equal(t, 3, ix.Dim())
}

func Test_FlatIndex_Add_RejectsWrongDimension(t *testing.T) {
	ix := newIndex(t, 3)

	err := ix.Add([][]float32{
		{1, 0, 0},
		{1, 0},
	})

	require.ErrorIs(t, err, ErrDimension)
	assert.Equal(t, 0, ix.Count())
}

func Test_FlatIndex_Search(t *testing.T) {
	ix := newIndex(t, 2)
	require.NoError(t, ix.Add([][]float32{
		{0, 0},
		{3, 4},
		{1, 0},
	}))

	hits, err := ix.Search([]float32{0, 0}, 2)
	require.NoError(t, err)

	require.Len(t, hits, 2)
	assert.Equal(t, 0, hits[0].Pos)
	assert.InDelta(t, 0.0, hits[0].Distance, 1e-9)
	assert.Equal(t, 2, hits[1].Pos)
	assert.InDelta(t, 1.0, hits[1].Distance, 1e-9)
}

func Test_FlatIndex_Search_KLargerThanCount(t *testing.T) {
	ix := newIndex(t, 2)
	require.NoError(t, ix.Add([][]float32{
		{0, 0},
		{3, 4},
	}))

	hits, err := ix.Search([]float32{0, 0}, 10)
	require.NoError(t, err)

	require.Len(t, hits, 2)
	assert.Equal(t, 0, hits[0].Pos)
	assert.Equal(t, 1, hits[1].Pos)
	assert.InDelta(t, 5.0, hits[1].Distance, 1e-9)
}

func Test_FlatIndex_Search_Empty(t *testing.T) {
	ix := newIndex(t, 2)

	hits, err := ix.Search([]float32{0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func Test_FlatIndex_Search_RejectsWrongDimension(t *testing.T) {
	ix := newIndex(t, 3)
	require.NoError(t, ix.Add([][]float32{{1, 2, 3}}))

	_, err := ix.Search([]float32{1, 2}, 1)
	require.ErrorIs(t, err, ErrDimension)
}

func Test_FlatIndex_Vectors_PreservesOrder(t *testing.T) {
	in := [][]float32{
		{1, 2},
		{3, 4},
		{5, 6},
	}

	ix := newIndex(t, 2)
	require.NoError(t, ix.Add(in))

	out := ix.Vectors()
	assert.Equal(t, in, out)

	out[0][0] = 99
	assert.Equal(t, in[1:], ix.Vectors()[1:])
	assert.Equal(t, float32(1), ix.Vectors()[0][0])
}

func Test_Relevance(t *testing.T) {
	var cases = []struct {
		distance float64
		score    float64
	}{
		{distance: 0, score: 1.0},
		{distance: 1, score: 0.5},
		{distance: 3, score: 0.25},
	}

	for i, c := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			assert.Equal(t, c.score, Relevance(c.distance))
		})
	}
}

func Test_Relevance_DecreasesWithDistance(t *testing.T) {
	prev := Relevance(0)
	for _, d := range []float64{0.1, 0.5, 2, 10, 1000} {
		cur := Relevance(d)
		assert.Less(t, cur, prev)
		assert.Greater(t, cur, 0.0)
		prev = cur
	}
}
