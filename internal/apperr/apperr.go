// Package apperr 定义了应用级的哨兵错误。
// 各可失败操作在调用边界上以这些错误值枚举自己的失败模式，
// 调用方通过 errors.Is 判断错误类别并决定如何响应。
package apperr

import "errors"

var (
	// ErrInvalidArgument 表示调用方违反了参数契约（如 chunkSize、topK 非正数）。
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound 表示指定的文档记录不存在。
	ErrNotFound = errors.New("document not found")

	// ErrDocumentNotReady 表示文档尚未处理完成（或处理失败），不能进行问答。
	ErrDocumentNotReady = errors.New("document not ready")

	// ErrIndexNotFound 表示指定文档的向量索引工件不存在或不完整。
	ErrIndexNotFound = errors.New("vector index not found")

	// ErrDimensionMismatch 表示向量维度与索引维度不一致。
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingUnavailable 表示 Embedding 服务不可达或内部出错。
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationUnavailable 表示生成式模型服务不可达或内部出错。
	ErrGenerationUnavailable = errors.New("generation service unavailable")
)
