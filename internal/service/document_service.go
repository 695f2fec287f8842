// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"pdf-qa-go/internal/apperr"
	"pdf-qa-go/internal/index"
	"pdf-qa-go/internal/model"
	"pdf-qa-go/internal/repository"
	"pdf-qa-go/pkg/log"
	"pdf-qa-go/pkg/storage"
	"pdf-qa-go/pkg/tasks"
)

// TaskQueue 抽象了文档处理任务的投递，生产实现是 Kafka 生产者。
type TaskQueue interface {
	Enqueue(task tasks.DocumentProcessingTask) error
}

// DocumentService 接口定义了文档生命周期相关的业务操作。
// 上传后文档进入处理中状态，由后台消费者完成提取、分块与索引构建；
// 在索引就绪之前，该文档的问答请求会被拒绝。
type DocumentService interface {
	Upload(ctx context.Context, fileName string, fileSize int64, file io.Reader) (*model.DocumentDTO, error)
	List(ctx context.Context) ([]model.DocumentDTO, error)
	Get(ctx context.Context, id string) (*model.DocumentDTO, error)
	Delete(ctx context.Context, id string) error
}

type documentService struct {
	docRepo     repository.DocumentRepository
	convRepo    repository.ConversationRepository
	objectStore storage.ObjectStore
	indexStore  *index.Store
	queue       TaskQueue
}

// NewDocumentService 创建一个新的 DocumentService 实例。
func NewDocumentService(
	docRepo repository.DocumentRepository,
	convRepo repository.ConversationRepository,
	objectStore storage.ObjectStore,
	indexStore *index.Store,
	queue TaskQueue,
) DocumentService {
	return &documentService{
		docRepo:     docRepo,
		convRepo:    convRepo,
		objectStore: objectStore,
		indexStore:  indexStore,
		queue:       queue,
	}
}

// objectName 返回文档原始文件在对象存储中的键。
func objectName(id, fileName string) string {
	return fmt.Sprintf("uploads/%s_%s", id, fileName)
}

// Upload 接收一个 PDF 文件：保存原始文件、创建处理中状态的元数据记录，
// 并向队列投递处理任务。
func (s *documentService) Upload(ctx context.Context, fileName string, fileSize int64, file io.Reader) (*model.DocumentDTO, error) {
	if !strings.HasSuffix(strings.ToLower(fileName), ".pdf") {
		return nil, fmt.Errorf("%w: 仅支持 PDF 文件, got %s", apperr.ErrInvalidArgument, fileName)
	}

	id := uuid.NewString()
	object := objectName(id, fileName)
	log.Infof("[DocumentService] 开始上传, documentID: %s, fileName: %s, size: %d", id, fileName, fileSize)

	if err := s.objectStore.Put(ctx, object, file, fileSize, "application/pdf"); err != nil {
		log.Errorf("[DocumentService] 保存原始文件失败, documentID: %s, error: %v", id, err)
		return nil, fmt.Errorf("保存原始文件失败: %w", err)
	}

	doc := &model.Document{
		ID:       id,
		FileName: fileName,
		FileSize: fileSize,
		Status:   model.StatusProcessing,
	}
	if err := s.docRepo.Create(doc); err != nil {
		log.Errorf("[DocumentService] 创建文档记录失败, documentID: %s, error: %v", id, err)
		return nil, fmt.Errorf("创建文档记录失败: %w", err)
	}

	task := tasks.DocumentProcessingTask{
		DocumentID: id,
		ObjectName: object,
		FileName:   fileName,
	}
	if err := s.queue.Enqueue(task); err != nil {
		// 任务投递失败时文档永远不会被处理，直接置为失败而非悬挂在处理中
		log.Errorf("[DocumentService] 投递处理任务失败, documentID: %s, error: %v", id, err)
		if ferr := s.docRepo.MarkFailed(id); ferr != nil {
			log.Errorf("[DocumentService] 标记文档失败状态出错, documentID: %s, error: %v", id, ferr)
		}
		return nil, fmt.Errorf("投递处理任务失败: %w", err)
	}

	log.Infof("[DocumentService] 上传完成, 已投递处理任务, documentID: %s", id)
	dto := doc.ToDTO()
	return &dto, nil
}

// List 返回所有文档的元数据。
func (s *documentService) List(ctx context.Context) ([]model.DocumentDTO, error) {
	docs, err := s.docRepo.FindAll()
	if err != nil {
		return nil, err
	}
	dtos := make([]model.DocumentDTO, 0, len(docs))
	for i := range docs {
		dtos = append(dtos, docs[i].ToDTO())
	}
	return dtos, nil
}

// Get 返回单个文档的元数据，用于前端轮询处理状态。
func (s *documentService) Get(ctx context.Context, id string) (*model.DocumentDTO, error) {
	doc, err := s.docRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	dto := doc.ToDTO()
	return &dto, nil
}

// Delete 删除文档：原始文件、索引工件、问答历史和元数据记录。
// 元数据层删除未知 ID 返回 apperr.ErrNotFound；索引层删除是幂等的。
func (s *documentService) Delete(ctx context.Context, id string) error {
	doc, err := s.docRepo.FindByID(id)
	if err != nil {
		return err
	}
	log.Infof("[DocumentService] 开始删除文档, documentID: %s", id)

	// 原始文件删除失败只记录日志，继续清理其余资源
	if err := s.objectStore.Remove(ctx, objectName(doc.ID, doc.FileName)); err != nil {
		log.Warnf("[DocumentService] 删除原始文件失败, documentID: %s, error: %v", id, err)
	}

	if err := s.indexStore.Delete(id); err != nil {
		return fmt.Errorf("删除向量索引失败: %w", err)
	}
	if err := s.convRepo.Clear(ctx, id); err != nil {
		log.Warnf("[DocumentService] 清理问答历史失败, documentID: %s, error: %v", id, err)
	}

	if err := s.docRepo.Delete(id); err != nil {
		return err
	}
	log.Infof("[DocumentService] 文档删除完成, documentID: %s", id)
	return nil
}
