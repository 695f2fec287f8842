// Package pipeline 定义了文档处理的核心流程：
// 下载原始文件 → 提取文本 → 分块 → 构建向量索引 → 标记就绪。
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"unicode/utf8"

	"pdf-qa-go/internal/chunker"
	"pdf-qa-go/internal/config"
	"pdf-qa-go/internal/index"
	"pdf-qa-go/internal/repository"
	"pdf-qa-go/pkg/log"
	"pdf-qa-go/pkg/storage"
	"pdf-qa-go/pkg/tasks"
)

// TextExtractor 抽象了文本提取能力，生产实现是 Tika 客户端。
type TextExtractor interface {
	ExtractText(fileReader io.Reader, fileName string) (string, error)
}

// Processor 封装了文档处理的所有依赖和逻辑。
// Process 返回 error 表示可重试的基础设施故障；提取文本为空属于软失败，
// 直接将文档标记为失败并正常返回，不触发重试。
type Processor struct {
	objectStore storage.ObjectStore
	extractor   TextExtractor
	indexStore  *index.Store
	docRepo     repository.DocumentRepository
	ragCfg      config.RAGConfig
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(
	objectStore storage.ObjectStore,
	extractor TextExtractor,
	indexStore *index.Store,
	docRepo repository.DocumentRepository,
	ragCfg config.RAGConfig,
) *Processor {
	return &Processor{
		objectStore: objectStore,
		extractor:   extractor,
		indexStore:  indexStore,
		docRepo:     docRepo,
		ragCfg:      ragCfg,
	}
}

// Process 是文档处理的主函数。
func (p *Processor) Process(ctx context.Context, task tasks.DocumentProcessingTask) error {
	log.Infof("[Processor] 开始处理文档, documentID: %s, fileName: %s", task.DocumentID, task.FileName)

	// 1. 从对象存储下载原始文件
	log.Infof("[Processor] 步骤1: 下载原始文件, object: %s", task.ObjectName)
	object, err := p.objectStore.Get(ctx, task.ObjectName)
	if err != nil {
		log.Errorf("[Processor] 下载原始文件失败, object: %s, error: %v", task.ObjectName, err)
		return fmt.Errorf("从对象存储下载文件失败: %w", err)
	}
	defer object.Close()

	buf := new(bytes.Buffer)
	size, err := buf.ReadFrom(object)
	if err != nil {
		log.Errorf("[Processor] 读取对象流失败, error: %v", err)
		return fmt.Errorf("读取对象流失败: %w", err)
	}
	log.Infof("[Processor] 步骤1: 下载成功, 文件大小: %d 字节", size)
	if size == 0 {
		// 原始文件本身为空，不可能重试成功
		log.Warnf("[Processor] 文件 '%s' 内容为空, 标记失败", task.FileName)
		p.Fail(ctx, task)
		return nil
	}

	// 2. 提取文本
	log.Info("[Processor] 步骤2: 提取文本内容")
	textContent, err := p.extractor.ExtractText(bytes.NewReader(buf.Bytes()), task.FileName)
	if err != nil {
		// 提取服务不可达属于基础设施故障，交由消费者重试
		log.Errorf("[Processor] 提取文本失败, fileName: %s, error: %v", task.FileName, err)
		return fmt.Errorf("提取文本失败: %w", err)
	}
	if textContent == "" {
		// 提取结果为空属于软失败：文档保持不可问答，但不抛错也不重试
		log.Warnf("[Processor] 提取的文本内容为空, 标记失败, documentID: %s", task.DocumentID)
		p.Fail(ctx, task)
		return nil
	}
	log.Infof("[Processor] 步骤2: 文本提取成功, 内容长度: %d 字符", utf8.RuneCountInString(textContent))

	// 3. 文本分块
	log.Infof("[Processor] 步骤3: 文本分块, chunkSize: %d", p.ragCfg.ChunkSize)
	chunks, err := chunker.Split(textContent, p.ragCfg.ChunkSize)
	if err != nil {
		return fmt.Errorf("文本分块失败: %w", err)
	}
	log.Infof("[Processor] 步骤3: 分块完成, 共 %d 个分块", len(chunks))

	// 4. 构建并持久化向量索引（整体重建，覆盖旧索引）
	log.Info("[Processor] 步骤4: 构建向量索引")
	if err := p.indexStore.Build(ctx, task.DocumentID, chunks); err != nil {
		log.Errorf("[Processor] 构建向量索引失败, documentID: %s, error: %v", task.DocumentID, err)
		return fmt.Errorf("构建向量索引失败: %w", err)
	}

	// 5. 记录提取文本并标记就绪
	if err := p.docRepo.MarkReady(task.DocumentID, textContent); err != nil {
		log.Errorf("[Processor] 标记文档就绪失败, documentID: %s, error: %v", task.DocumentID, err)
		return fmt.Errorf("标记文档就绪失败: %w", err)
	}

	log.Infof("[Processor] 文档处理成功完成, documentID: %s", task.DocumentID)
	return nil
}

// Fail 将文档置为终态失败。供 Process 的软失败路径和消费者的重试耗尽路径调用。
func (p *Processor) Fail(ctx context.Context, task tasks.DocumentProcessingTask) {
	if err := p.docRepo.MarkFailed(task.DocumentID); err != nil {
		log.Errorf("[Processor] 标记文档失败状态出错, documentID: %s, error: %v", task.DocumentID, err)
	}
}
