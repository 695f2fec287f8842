package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-qa-go/internal/apperr"
	"pdf-qa-go/internal/config"
	"pdf-qa-go/internal/model"
)

func newQAFixture(t *testing.T) (*memDocRepo, *memConvRepo, *stubRetriever, *stubLLM, QAService) {
	t.Helper()
	docRepo := newMemDocRepo()
	convRepo := newMemConvRepo()
	retriever := &stubRetriever{chunks: []string{"BBBBB"}}
	llmClient := &stubLLM{answer: "the answer"}
	svc := NewQAService(docRepo, convRepo, retriever, llmClient,
		config.RAGConfig{TopK: 3}, config.LLMConfig{})
	return docRepo, convRepo, retriever, llmClient, svc
}

func TestAsk_ReadyDocument(t *testing.T) {
	docRepo, convRepo, retriever, llmClient, svc := newQAFixture(t)
	docRepo.put(&model.Document{ID: "doc-1", Status: model.StatusReady, ExtractedText: "AAAAABBBBB"})

	answer, err := svc.Ask(context.Background(), "doc-1", "what is in the middle?")
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)
	assert.Equal(t, 1, retriever.calls)

	// 提示词包含指令、拼接后的上下文和原始问题
	require.Len(t, llmClient.messages, 2)
	assert.Equal(t, "system", llmClient.messages[0].Role)
	assert.Equal(t, defaultInstruction, llmClient.messages[0].Content)
	assert.Contains(t, llmClient.messages[1].Content, "Context: BBBBB")
	assert.Contains(t, llmClient.messages[1].Content, "Question: what is in the middle?")

	// 问答历史被记录
	history, err := convRepo.GetHistory(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "what is in the middle?", history[0].Question)
	assert.Equal(t, "the answer", history[0].Answer)
}

func TestAsk_ProcessingDocumentIsRejected(t *testing.T) {
	docRepo, _, retriever, _, svc := newQAFixture(t)
	docRepo.put(&model.Document{ID: "doc-1", Status: model.StatusProcessing})

	_, err := svc.Ask(context.Background(), "doc-1", "anything")
	assert.ErrorIs(t, err, apperr.ErrDocumentNotReady)
	assert.Zero(t, retriever.calls, "未就绪文档不应触发检索")
}

func TestAsk_FailedDocumentIsRejected(t *testing.T) {
	docRepo, _, retriever, _, svc := newQAFixture(t)
	docRepo.put(&model.Document{ID: "doc-1", Status: model.StatusFailed})

	_, err := svc.Ask(context.Background(), "doc-1", "anything")
	assert.ErrorIs(t, err, apperr.ErrDocumentNotReady)
	assert.Zero(t, retriever.calls)
}

func TestAsk_UnknownDocument(t *testing.T) {
	_, _, retriever, _, svc := newQAFixture(t)

	_, err := svc.Ask(context.Background(), "no-such-doc", "anything")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Zero(t, retriever.calls, "未知文档不应触发检索")
}

func TestAsk_EmptyQuestion(t *testing.T) {
	docRepo, _, _, _, svc := newQAFixture(t)
	docRepo.put(&model.Document{ID: "doc-1", Status: model.StatusReady, ExtractedText: "text"})

	_, err := svc.Ask(context.Background(), "doc-1", "   ")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestAsk_RetrievalErrorPropagates(t *testing.T) {
	docRepo, _, retriever, _, svc := newQAFixture(t)
	docRepo.put(&model.Document{ID: "doc-1", Status: model.StatusReady, ExtractedText: "text"})
	retriever.err = apperr.ErrIndexNotFound

	_, err := svc.Ask(context.Background(), "doc-1", "anything")
	assert.ErrorIs(t, err, apperr.ErrIndexNotFound)
}

func TestAsk_GenerationErrorPropagates(t *testing.T) {
	docRepo, convRepo, _, llmClient, svc := newQAFixture(t)
	docRepo.put(&model.Document{ID: "doc-1", Status: model.StatusReady, ExtractedText: "text"})
	llmClient.err = errors.New("upstream timeout")

	_, err := svc.Ask(context.Background(), "doc-1", "anything")
	require.Error(t, err)

	// 失败的问答不写入历史
	history, err := convRepo.GetHistory(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestHistory_UnknownDocument(t *testing.T) {
	_, _, _, _, svc := newQAFixture(t)

	_, err := svc.History(context.Background(), "no-such-doc")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
