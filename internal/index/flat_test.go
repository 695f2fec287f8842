package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-qa-go/internal/apperr"
)

func TestNewFlatIndex_InvalidDim(t *testing.T) {
	_, err := NewFlatIndex(0)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestFlatIndex_AddDimensionMismatch(t *testing.T) {
	idx, err := NewFlatIndex(3)
	require.NoError(t, err)

	err = idx.Add([]float32{1, 2})
	assert.ErrorIs(t, err, apperr.ErrDimensionMismatch)
	assert.Equal(t, 0, idx.Len())
}

func TestFlatIndex_SearchOrdering(t *testing.T) {
	idx, err := NewFlatIndex(2)
	require.NoError(t, err)
	require.NoError(t, idx.Add(
		[]float32{10, 0}, // position 0, 距离 100
		[]float32{1, 0},  // position 1, 距离 1
		[]float32{3, 0},  // position 2, 距离 9
	))

	hits, err := idx.Search([]float32{0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	// 距离升序，位置均为合法下标
	for i := 1; i < len(hits); i++ {
		assert.LessOrEqual(t, hits[i-1].Distance, hits[i].Distance)
	}
	for _, h := range hits {
		assert.GreaterOrEqual(t, h.Position, 0)
		assert.Less(t, h.Position, idx.Len())
	}
	assert.Equal(t, []int{1, 2, 0}, []int{hits[0].Position, hits[1].Position, hits[2].Position})
}

func TestFlatIndex_SearchTieBreakDeterministic(t *testing.T) {
	idx, err := NewFlatIndex(1)
	require.NoError(t, err)
	// 两个与查询等距的向量
	require.NoError(t, idx.Add([]float32{1}, []float32{-1}, []float32{0}))

	for i := 0; i < 5; i++ {
		hits, err := idx.Search([]float32{0}, 3)
		require.NoError(t, err)
		// 等距时位置小者在前，重复查询结果稳定
		assert.Equal(t, 0, hits[0].Position)
		assert.Equal(t, 1, hits[1].Position)
	}
}

func TestFlatIndex_SearchTopKLargerThanLen(t *testing.T) {
	idx, err := NewFlatIndex(1)
	require.NoError(t, err)
	require.NoError(t, idx.Add([]float32{1}, []float32{2}, []float32{3}))

	hits, err := idx.Search([]float32{0}, 5)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestFlatIndex_SearchInvalidArgs(t *testing.T) {
	idx, err := NewFlatIndex(2)
	require.NoError(t, err)

	_, err = idx.Search([]float32{0, 0}, 0)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = idx.Search([]float32{0}, 3)
	assert.ErrorIs(t, err, apperr.ErrDimensionMismatch)
}
