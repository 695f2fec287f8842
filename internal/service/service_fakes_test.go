package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"pdf-qa-go/internal/apperr"
	"pdf-qa-go/internal/model"
	"pdf-qa-go/pkg/llm"
	"pdf-qa-go/pkg/tasks"
)

// memDocRepo 是内存文档仓库替身。
type memDocRepo struct {
	mu   sync.Mutex
	docs map[string]*model.Document
}

func newMemDocRepo() *memDocRepo {
	return &memDocRepo{docs: make(map[string]*model.Document)}
}

func (r *memDocRepo) put(doc *model.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = doc
}

func (r *memDocRepo) Create(doc *model.Document) error {
	r.put(doc)
	return nil
}

func (r *memDocRepo) FindByID(id string) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %s", apperr.ErrNotFound, id)
	}
	copied := *doc
	return &copied, nil
}

func (r *memDocRepo) FindAll() ([]model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Document, 0, len(r.docs))
	for _, doc := range r.docs {
		out = append(out, *doc)
	}
	return out, nil
}

func (r *memDocRepo) MarkReady(id, extractedText string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return fmt.Errorf("%w: id %s", apperr.ErrNotFound, id)
	}
	doc.Status = model.StatusReady
	doc.ExtractedText = extractedText
	return nil
}

func (r *memDocRepo) MarkFailed(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return fmt.Errorf("%w: id %s", apperr.ErrNotFound, id)
	}
	doc.Status = model.StatusFailed
	return nil
}

func (r *memDocRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return fmt.Errorf("%w: id %s", apperr.ErrNotFound, id)
	}
	delete(r.docs, id)
	return nil
}

// memConvRepo 是内存问答历史替身。
type memConvRepo struct {
	history map[string][]model.ConversationMessage
}

func newMemConvRepo() *memConvRepo {
	return &memConvRepo{history: make(map[string][]model.ConversationMessage)}
}

func (r *memConvRepo) AppendMessage(_ context.Context, documentID string, msg model.ConversationMessage) error {
	r.history[documentID] = append(r.history[documentID], msg)
	return nil
}

func (r *memConvRepo) GetHistory(_ context.Context, documentID string) ([]model.ConversationMessage, error) {
	return r.history[documentID], nil
}

func (r *memConvRepo) Clear(_ context.Context, documentID string) error {
	delete(r.history, documentID)
	return nil
}

// memObjectStore 是内存对象存储替身。
type memObjectStore struct {
	objects map[string][]byte
	putErr  error
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: make(map[string][]byte)}
}

func (s *memObjectStore) Put(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.objects[objectName] = data
	return nil
}

func (s *memObjectStore) Get(_ context.Context, objectName string) (io.ReadCloser, error) {
	data, ok := s.objects[objectName]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", objectName)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memObjectStore) Remove(_ context.Context, objectName string) error {
	delete(s.objects, objectName)
	return nil
}

// stubQueue 记录投递的任务，可注入投递错误。
type stubQueue struct {
	tasks      []tasks.DocumentProcessingTask
	enqueueErr error
}

func (q *stubQueue) Enqueue(task tasks.DocumentProcessingTask) error {
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.tasks = append(q.tasks, task)
	return nil
}

// stubRetriever 记录调用次数并返回预设分块。
type stubRetriever struct {
	calls  int
	chunks []string
	err    error
}

func (r *stubRetriever) Retrieve(_ context.Context, _, _ string, _ int) ([]string, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.chunks, nil
}

// stubLLM 记录收到的消息并返回预设答案。
type stubLLM struct {
	messages []llm.Message
	answer   string
	err      error
}

func (c *stubLLM) ChatCompletion(_ context.Context, messages []llm.Message, _ *llm.GenerationParams) (string, error) {
	c.messages = messages
	if c.err != nil {
		return "", c.err
	}
	return c.answer, nil
}

// zeroEmbedder 将任意文本映射为固定一维向量，供真实索引存储使用。
type zeroEmbedder struct{}

func (zeroEmbedder) CreateEmbeddings(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0}
	}
	return out, nil
}

func (e zeroEmbedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.CreateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
