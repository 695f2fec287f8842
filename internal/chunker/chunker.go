// Package chunker 负责将提取出的长文本切分为定长、无重叠的文本分块。
package chunker

import (
	"fmt"

	"pdf-qa-go/internal/apperr"
)

// Split 将 text 按 chunkSize（Unicode 码点数）切分为连续、无重叠的分块，
// 最后一块可以短于 chunkSize。
// 不变式：按顺序拼接所有分块可以精确还原原始文本。
// 空文本返回空切片；chunkSize <= 0 视为调用方违反契约。
func Split(text string, chunkSize int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunkSize 必须为正数, got %d", apperr.ErrInvalidArgument, chunkSize)
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return []string{}, nil
	}

	chunks := make([]string, 0, (len(runes)+chunkSize-1)/chunkSize)
	for i := 0; i < len(runes); i += chunkSize {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks, nil
}
