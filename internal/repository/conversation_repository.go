package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"pdf-qa-go/internal/model"
)

// ConversationRepository 定义了每个文档的问答历史记录操作接口。
// 历史记录存放在 Redis 中，随文档删除一并清理。
type ConversationRepository interface {
	AppendMessage(ctx context.Context, documentID string, msg model.ConversationMessage) error
	GetHistory(ctx context.Context, documentID string) ([]model.ConversationMessage, error)
	Clear(ctx context.Context, documentID string) error
}

type redisConversationRepository struct {
	redisClient *redis.Client
}

// NewConversationRepository 创建一个新的 ConversationRepository 实例。
func NewConversationRepository(redisClient *redis.Client) ConversationRepository {
	return &redisConversationRepository{redisClient: redisClient}
}

func conversationKey(documentID string) string {
	return fmt.Sprintf("conversation:%s", documentID)
}

// AppendMessage 将一条问答记录追加到文档的历史列表末尾。
func (r *redisConversationRepository) AppendMessage(ctx context.Context, documentID string, msg model.ConversationMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("序列化问答记录失败: %w", err)
	}
	if err := r.redisClient.RPush(ctx, conversationKey(documentID), data).Err(); err != nil {
		return fmt.Errorf("写入问答历史失败: %w", err)
	}
	return nil
}

// GetHistory 按时间顺序返回文档的全部问答历史；没有历史时返回空切片。
func (r *redisConversationRepository) GetHistory(ctx context.Context, documentID string) ([]model.ConversationMessage, error) {
	entries, err := r.redisClient.LRange(ctx, conversationKey(documentID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("读取问答历史失败: %w", err)
	}

	messages := make([]model.ConversationMessage, 0, len(entries))
	for _, entry := range entries {
		var msg model.ConversationMessage
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			return nil, fmt.Errorf("解析问答记录失败: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Clear 删除文档的全部问答历史，键不存在时也不报错。
func (r *redisConversationRepository) Clear(ctx context.Context, documentID string) error {
	return r.redisClient.Del(ctx, conversationKey(documentID)).Err()
}
