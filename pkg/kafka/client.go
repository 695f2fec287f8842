// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"

	"pdf-qa-go/internal/config"
	"pdf-qa-go/pkg/log"
	"pdf-qa-go/pkg/tasks"
)

// 同一文档任务的最大处理尝试次数，超过后提交 offset 并标记失败。
const maxAttempts = 3

// TaskProcessor 定义了能够处理文档任务的组件接口，
// 将消费者与具体的流水线实现解耦。
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.DocumentProcessingTask) error
	// Fail 在任务达到最大尝试次数后被调用，用于将文档置为终态失败。
	Fail(ctx context.Context, task tasks.DocumentProcessingTask)
}

// Queue 是文档处理任务的 Kafka 生产者。
type Queue struct {
	writer *kafka.Writer
}

// NewQueue 初始化 Kafka 生产者。
func NewQueue(cfg config.KafkaConfig) *Queue {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
	return &Queue{writer: writer}
}

// Enqueue 发送一个文档处理任务到 Kafka。
func (q *Queue) Enqueue(task tasks.DocumentProcessingTask) error {
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return q.writer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(task.DocumentID),
			Value: taskBytes,
		},
	)
}

// Close 关闭底层的 Kafka writer。
func (q *Queue) Close() error {
	return q.writer.Close()
}

// StartConsumer 启动一个 Kafka 消费者来处理文档任务。
// 失败次数用 Redis 计数，达到阈值后标记文档失败并提交 offset 终止重试。
func StartConsumer(cfg config.KafkaConfig, rdb *redis.Client, processor TaskProcessor) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{cfg.Brokers},
		Topic:    cfg.Topic,
		GroupID:  "pdf-qa-go-consumer",
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(context.Background())
		if err != nil {
			log.Error("从 Kafka 读取消息失败", err)
			break
		}

		var task tasks.DocumentProcessingTask
		if err := json.Unmarshal(m.Value, &task); err != nil {
			log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
			// 消息格式错误，直接提交，避免阻塞队列
			if err := r.CommitMessages(context.Background(), m); err != nil {
				log.Errorf("提交错误消息失败: %v", err)
			}
			continue
		}

		log.Infof("开始处理文档任务: documentID=%s, fileName=%s", task.DocumentID, task.FileName)
		if err := processor.Process(context.Background(), task); err != nil {
			log.Errorf("处理文档任务失败: documentID=%s, error: %v", task.DocumentID, err)
			attemptsKey := fmt.Sprintf("kafka:attempts:%s", task.DocumentID)
			attempts, incErr := rdb.Incr(context.Background(), attemptsKey).Result()
			if incErr != nil {
				// Redis 异常时保守处理：不提交 offset，让 Kafka 重试
				continue
			}
			_ = rdb.Expire(context.Background(), attemptsKey, 24*time.Hour).Err()

			if attempts >= maxAttempts {
				log.Errorf("文档任务多次失败(>=%d)，标记失败并终止重试: documentID=%s", maxAttempts, task.DocumentID)
				processor.Fail(context.Background(), task)
				if err := r.CommitMessages(context.Background(), m); err != nil {
					log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
				}
			}
			// attempts < maxAttempts 时不提交 offset，由 Kafka 自动重试
		} else {
			log.Infof("文档任务处理成功: documentID=%s", task.DocumentID)
			_ = rdb.Del(context.Background(), fmt.Sprintf("kafka:attempts:%s", task.DocumentID)).Err()
			if err := r.CommitMessages(context.Background(), m); err != nil {
				log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
			}
		}
	}

	if err := r.Close(); err != nil {
		log.Fatalf("关闭 Kafka 消费者失败: %v", err)
	}
}
