package database

import (
	"context"

	"github.com/go-redis/redis/v8"

	"pdf-qa-go/pkg/log"
)

var RDB *redis.Client

// InitRedis 初始化 Redis 客户端连接
func InitRedis(addr, password string, db int) {
	RDB = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// 测试连接
	if err := RDB.Ping(context.Background()).Err(); err != nil {
		log.Fatal("连接 Redis 失败", err)
	}

	log.Info("Redis 客户端连接成功")
}
