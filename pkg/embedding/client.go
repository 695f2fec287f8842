// Package embedding 提供了调用 Embedding 模型服务的客户端。
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"pdf-qa-go/internal/apperr"
	"pdf-qa-go/internal/config"
	"pdf-qa-go/pkg/log"
)

// Client 定义了 Embedding 客户端接口。
// 向量顺序与输入文本顺序一一对应；所有失败模式归类为 apperr.ErrEmbeddingUnavailable，
// 是否重试由调用方决定。
type Client interface {
	// CreateEmbeddings 批量将文本转换为定长向量，vectors[i] 对应 texts[i]。
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	// CreateEmbedding 是单条文本的便捷形式，等价于批量调用的单元素情形。
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type openAICompatibleClient struct {
	cfg    config.EmbeddingConfig
	client *http.Client
}

// NewClient 创建一个 OpenAI 兼容的 Embedding 客户端。
func NewClient(cfg config.EmbeddingConfig) Client {
	return &openAICompatibleClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// CreateEmbeddings 调用 OpenAI 兼容的 /embeddings 接口批量获取向量。
func (c *openAICompatibleClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	log.Infof("[EmbeddingClient] 开始调用 Embedding API, model: %s, batch: %d", c.cfg.Model, len(texts))

	reqBody := embeddingRequest{
		Model:      c.cfg.Model,
		Input:      texts,
		Dimensions: c.cfg.Dimensions,
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("序列化 embedding 请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/embeddings", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("创建 embedding 请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("[EmbeddingClient] 调用 Embedding API 失败, error: %v", err)
		return nil, fmt.Errorf("%w: %v", apperr.ErrEmbeddingUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Errorf("[EmbeddingClient] Embedding API 返回非 200 状态码: %s", resp.Status)
		return nil, fmt.Errorf("%w: api 状态码 %s", apperr.ErrEmbeddingUnavailable, resp.Status)
	}

	var embeddingResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingResp); err != nil {
		log.Errorf("[EmbeddingClient] 解析 Embedding API 响应失败, error: %v", err)
		return nil, fmt.Errorf("%w: 解析响应失败: %v", apperr.ErrEmbeddingUnavailable, err)
	}

	if len(embeddingResp.Data) != len(texts) {
		log.Errorf("[EmbeddingClient] Embedding API 返回向量数量不符, want: %d, got: %d", len(texts), len(embeddingResp.Data))
		return nil, fmt.Errorf("%w: 返回向量数量不符", apperr.ErrEmbeddingUnavailable)
	}

	// 按 index 字段排序，保证向量顺序与输入文本顺序一致
	sort.Slice(embeddingResp.Data, func(i, j int) bool {
		return embeddingResp.Data[i].Index < embeddingResp.Data[j].Index
	})

	vectors := make([][]float32, 0, len(embeddingResp.Data))
	for _, item := range embeddingResp.Data {
		if len(item.Embedding) == 0 {
			return nil, fmt.Errorf("%w: 返回了空向量 (index=%d)", apperr.ErrEmbeddingUnavailable, item.Index)
		}
		vectors = append(vectors, item.Embedding)
	}

	log.Infof("[EmbeddingClient] 成功获取 %d 个向量, 维度: %d", len(vectors), len(vectors[0]))
	return vectors, nil
}

// CreateEmbedding 将单条文本转换为向量。
func (c *openAICompatibleClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.CreateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
