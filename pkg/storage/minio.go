// Package storage 提供了与对象存储服务（MinIO）交互的功能。
package storage

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"pdf-qa-go/internal/config"
	"pdf-qa-go/pkg/log"
)

// ObjectStore 抽象了流水线与服务层需要的对象存储操作，便于测试替换。
type ObjectStore interface {
	Put(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	Get(ctx context.Context, objectName string) (io.ReadCloser, error)
	Remove(ctx context.Context, objectName string) error
}

// minioStore 是 ObjectStore 的 MinIO 实现，所有对象存放在单一存储桶中。
type minioStore struct {
	client     *minio.Client
	bucketName string
}

// NewMinIOStore 初始化 MinIO 客户端并确保指定的存储桶存在。
func NewMinIOStore(cfg config.MinIOConfig) (ObjectStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	log.Info("MinIO 客户端初始化成功")

	// 检查存储桶是否存在，不存在则创建
	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, err
	}
	if !exists {
		log.Infof("存储桶 '%s' 不存在，正在创建...", cfg.BucketName)
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
		log.Infof("存储桶 '%s' 创建成功", cfg.BucketName)
	}

	return &minioStore{client: client, bucketName: cfg.BucketName}, nil
}

// Put 上传一个对象。
func (s *minioStore) Put(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// Get 读取一个对象，调用方负责关闭返回的 ReadCloser。
func (s *minioStore) Get(ctx context.Context, objectName string) (io.ReadCloser, error) {
	object, err := s.client.GetObject(ctx, s.bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	return object, nil
}

// Remove 删除一个对象。
func (s *minioStore) Remove(ctx context.Context, objectName string) error {
	return s.client.RemoveObject(ctx, s.bucketName, objectName, minio.RemoveObjectOptions{})
}
