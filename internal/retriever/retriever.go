// Package retriever 实现了问答的检索读路径：
// 加载文档索引、向量化问题、最近邻搜索并映射回分块文本。
package retriever

import (
	"context"
	"fmt"

	"pdf-qa-go/internal/apperr"
	"pdf-qa-go/internal/index"
	"pdf-qa-go/pkg/embedding"
	"pdf-qa-go/pkg/log"
)

// Retriever 按文档 ID 检索与问题最相似的分块文本。纯读路径，不修改任何持久化状态。
type Retriever struct {
	store           *index.Store
	embeddingClient embedding.Client
}

// New 创建一个新的 Retriever 实例。
func New(store *index.Store, embeddingClient embedding.Client) *Retriever {
	return &Retriever{
		store:           store,
		embeddingClient: embeddingClient,
	}
}

// Retrieve 返回与 question 最相似的至多 topK 个分块文本，按距离升序排列。
// 文档索引不存在时返回 apperr.ErrIndexNotFound，由调用方解释为
// “文档尚未处理完成”或“文档未知”。
func (r *Retriever) Retrieve(ctx context.Context, documentID, question string, topK int) ([]string, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK 必须为正数, got %d", apperr.ErrInvalidArgument, topK)
	}

	idx, chunks, err := r.store.Load(documentID)
	if err != nil {
		return nil, err
	}

	queryVector, err := r.embeddingClient.CreateEmbedding(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("问题向量化失败: %w", err)
	}

	hits, err := idx.Search(queryVector, topK)
	if err != nil {
		return nil, err
	}

	results := make([]string, 0, len(hits))
	for _, hit := range hits {
		results = append(results, chunks[hit.Position])
	}
	log.Infof("[Retriever] 检索完成, documentID: %s, topK: %d, 命中: %d", documentID, topK, len(results))
	return results, nil
}
