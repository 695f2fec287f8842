package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pdf-qa-go/internal/apperr"
	"pdf-qa-go/internal/config"
	"pdf-qa-go/internal/model"
	"pdf-qa-go/internal/repository"
	"pdf-qa-go/pkg/llm"
	"pdf-qa-go/pkg/log"
)

// defaultInstruction 是答案合成的内置指令模板，可通过配置覆盖。
const defaultInstruction = "You are a helpful assistant. Use the following pdf context to answer the question. Answer only the answer without extra commentary."

// Retriever 抽象了检索读路径，生产实现是 internal/retriever.Retriever。
type Retriever interface {
	Retrieve(ctx context.Context, documentID, question string, topK int) ([]string, error)
}

// QAService 接口定义了文档问答操作。
type QAService interface {
	// Ask 针对指定文档回答一个自然语言问题。
	// 文档未知返回 apperr.ErrNotFound；文档未就绪（处理中或失败）
	// 返回 apperr.ErrDocumentNotReady，此时不做任何检索工作。
	Ask(ctx context.Context, documentID, question string) (string, error)
	// History 返回文档的问答历史。
	History(ctx context.Context, documentID string) ([]model.ConversationMessage, error)
}

type qaService struct {
	docRepo   repository.DocumentRepository
	convRepo  repository.ConversationRepository
	retriever Retriever
	llmClient llm.Client
	ragCfg    config.RAGConfig
	llmCfg    config.LLMConfig
}

// NewQAService 创建一个新的 QAService 实例。
func NewQAService(
	docRepo repository.DocumentRepository,
	convRepo repository.ConversationRepository,
	retriever Retriever,
	llmClient llm.Client,
	ragCfg config.RAGConfig,
	llmCfg config.LLMConfig,
) QAService {
	return &qaService{
		docRepo:   docRepo,
		convRepo:  convRepo,
		retriever: retriever,
		llmClient: llmClient,
		ragCfg:    ragCfg,
		llmCfg:    llmCfg,
	}
}

// Ask 实现问答主流程：就绪门控 → 检索 → 答案合成 → 记录历史。
func (s *qaService) Ask(ctx context.Context, documentID, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: 问题为空", apperr.ErrInvalidArgument)
	}

	// 1. 就绪门控：未知或未就绪的文档在任何检索工作之前被拒绝
	doc, err := s.docRepo.FindByID(documentID)
	if err != nil {
		return "", err
	}
	if !doc.Ready() {
		return "", fmt.Errorf("%w: documentID %s (status=%s)", apperr.ErrDocumentNotReady, documentID, doc.StatusLabel())
	}

	log.Infof("[QAService] 开始问答, documentID: %s, question: %q", documentID, question)

	// 2. 检索与问题最相似的分块
	chunks, err := s.retriever.Retrieve(ctx, documentID, question, s.ragCfg.TopK)
	if err != nil {
		return "", err
	}
	log.Infof("[QAService] 检索到 %d 个上下文分块", len(chunks))

	// 3. 合成答案
	answer, err := s.synthesize(ctx, question, chunks)
	if err != nil {
		return "", err
	}

	// 4. 保存问答历史（尽力而为，失败不影响返回答案）
	msg := model.ConversationMessage{Question: question, Answer: answer, CreatedAt: time.Now()}
	if err := s.convRepo.AppendMessage(ctx, documentID, msg); err != nil {
		log.Errorf("[QAService] 保存问答历史失败, documentID: %s, error: %v", documentID, err)
	}

	log.Infof("[QAService] 问答完成, documentID: %s", documentID)
	return answer, nil
}

// synthesize 将检索到的分块按顺序以空格拼接为上下文，
// 连同固定指令和问题一起提交给生成式模型。
func (s *qaService) synthesize(ctx context.Context, question string, contextChunks []string) (string, error) {
	instruction := s.llmCfg.Prompt.Instruction
	if instruction == "" {
		instruction = defaultInstruction
	}

	combinedContext := strings.Join(contextChunks, " ")
	userContent := fmt.Sprintf("Context: %s\n\nQuestion: %s", combinedContext, question)

	messages := []llm.Message{
		{Role: "system", Content: instruction},
		{Role: "user", Content: userContent},
	}
	return s.llmClient.ChatCompletion(ctx, messages, nil)
}

// History 返回文档的问答历史。文档必须存在，但不要求已就绪。
func (s *qaService) History(ctx context.Context, documentID string) ([]model.ConversationMessage, error) {
	if _, err := s.docRepo.FindByID(documentID); err != nil {
		return nil, err
	}
	return s.convRepo.GetHistory(ctx, documentID)
}
