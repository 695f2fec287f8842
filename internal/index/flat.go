// Package index 实现了每文档一份的向量相似度索引及其持久化存储。
package index

import (
	"fmt"
	"sort"

	"pdf-qa-go/internal/apperr"
)

// Hit 是一次最近邻查询的单条结果。
// Position 是分块在文档内的位置（零起始），可精确映射回一个分块文本。
type Hit struct {
	Position int     `json:"position"`
	Distance float32 `json:"distance"`
}

// FlatIndex 是平坦（穷举精确）的向量索引，距离度量为欧氏距离的平方，
// 不做归一化。向量的插入顺序即分块顺序，查询结果的 Position 与之对应。
type FlatIndex struct {
	dim     int
	vectors [][]float32
}

// NewFlatIndex 创建一个维度为 dim 的空索引。
func NewFlatIndex(dim int) (*FlatIndex, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: 索引维度必须为正数, got %d", apperr.ErrInvalidArgument, dim)
	}
	return &FlatIndex{dim: dim}, nil
}

// Dim 返回索引的向量维度。
func (x *FlatIndex) Dim() int {
	return x.dim
}

// Len 返回索引中的向量数量。
func (x *FlatIndex) Len() int {
	return len(x.vectors)
}

// Add 按顺序追加向量。同一索引内所有向量维度必须一致。
func (x *FlatIndex) Add(vectors ...[]float32) error {
	for i, v := range vectors {
		if len(v) != x.dim {
			return fmt.Errorf("%w: 索引维度 %d, 向量 %d 维度 %d", apperr.ErrDimensionMismatch, x.dim, i, len(v))
		}
	}
	x.vectors = append(x.vectors, vectors...)
	return nil
}

// Search 返回与 query 最近的至多 topK 个条目，按距离升序排列；
// 索引中向量不足 topK 时返回全部。距离相等时位置小者在前，
// 保证同一索引状态下结果稳定。
func (x *FlatIndex) Search(query []float32, topK int) ([]Hit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK 必须为正数, got %d", apperr.ErrInvalidArgument, topK)
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: 索引维度 %d, 查询向量维度 %d", apperr.ErrDimensionMismatch, x.dim, len(query))
	}

	hits := make([]Hit, 0, len(x.vectors))
	for pos, v := range x.vectors {
		hits = append(hits, Hit{Position: pos, Distance: squaredL2(query, v)})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Position < hits[j].Position
	})

	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}

// squaredL2 计算两个等长向量的欧氏距离平方。
func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
