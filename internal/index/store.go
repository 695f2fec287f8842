package index

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"pdf-qa-go/internal/apperr"
	"pdf-qa-go/pkg/embedding"
	"pdf-qa-go/pkg/log"
)

const (
	// 每个文档目录下的两个持久化工件：二者同时存在索引才视为存在。
	vectorsFileName = "vectors.bin"
	chunksFileName  = "chunks.json"

	// vectors.bin 的文件头魔数与格式版本。
	vectorsMagic   = uint32(0x50515649) // "PQVI"
	vectorsVersion = uint32(1)
)

// Store 负责按文档 ID 持久化和读取向量索引及配套的分块文本列表。
// 同一文档的构建操作通过每 ID 互斥锁串行化，避免索引文件被交错写入；
// 不同文档之间互不影响。
type Store struct {
	rootDir  string
	embedder embedding.Client

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore 创建一个以 rootDir 为根目录的索引存储。
func NewStore(rootDir string, embedder embedding.Client) *Store {
	return &Store{
		rootDir:  rootDir,
		embedder: embedder,
		locks:    make(map[string]*sync.Mutex),
	}
}

// lockFor 返回指定文档的构建互斥锁。
func (s *Store) lockFor(documentID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[documentID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[documentID] = l
	}
	return l
}

func (s *Store) docDir(documentID string) string {
	return filepath.Join(s.rootDir, documentID)
}

// Build 为指定文档构建并持久化一个全新的索引：批量向量化所有分块，
// 校验维度一致性，然后将向量文件与分块列表写入磁盘。
// 对同一文档覆盖已有索引（整体重建，非增量）。
func (s *Store) Build(ctx context.Context, documentID string, chunks []string) error {
	if len(chunks) == 0 {
		return fmt.Errorf("%w: 分块列表为空", apperr.ErrInvalidArgument)
	}

	lock := s.lockFor(documentID)
	lock.Lock()
	defer lock.Unlock()

	log.Infof("[IndexStore] 开始构建索引, documentID: %s, 分块数: %d", documentID, len(chunks))

	vectors, err := s.embedder.CreateEmbeddings(ctx, chunks)
	if err != nil {
		return fmt.Errorf("分块向量化失败: %w", err)
	}

	idx, err := NewFlatIndex(len(vectors[0]))
	if err != nil {
		return err
	}
	if err := idx.Add(vectors...); err != nil {
		return err
	}

	dir := s.docDir(documentID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建索引目录失败: %w", err)
	}
	if err := writeVectorsFile(filepath.Join(dir, vectorsFileName), idx); err != nil {
		return fmt.Errorf("写入向量文件失败: %w", err)
	}
	if err := writeChunksFile(filepath.Join(dir, chunksFileName), chunks); err != nil {
		return fmt.Errorf("写入分块文件失败: %w", err)
	}

	log.Infof("[IndexStore] 索引构建完成, documentID: %s, 向量数: %d, 维度: %d", documentID, idx.Len(), idx.Dim())
	return nil
}

// Load 读取指定文档的索引与分块列表。
// 任一持久化工件缺失都按索引不存在处理，不做部分降级。
func (s *Store) Load(documentID string) (*FlatIndex, []string, error) {
	dir := s.docDir(documentID)

	idx, err := readVectorsFile(filepath.Join(dir, vectorsFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: documentID %s", apperr.ErrIndexNotFound, documentID)
		}
		return nil, nil, fmt.Errorf("读取向量文件失败: %w", err)
	}

	chunks, err := readChunksFile(filepath.Join(dir, chunksFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: documentID %s", apperr.ErrIndexNotFound, documentID)
		}
		return nil, nil, fmt.Errorf("读取分块文件失败: %w", err)
	}

	if idx.Len() != len(chunks) {
		return nil, nil, fmt.Errorf("索引工件不一致: 向量数 %d, 分块数 %d (documentID=%s)", idx.Len(), len(chunks), documentID)
	}
	return idx, chunks, nil
}

// Delete 删除指定文档的全部索引工件。删除不存在的文档不报错（幂等）。
func (s *Store) Delete(documentID string) error {
	lock := s.lockFor(documentID)
	lock.Lock()
	defer lock.Unlock()

	if err := os.RemoveAll(s.docDir(documentID)); err != nil {
		return fmt.Errorf("删除索引目录失败: %w", err)
	}
	return nil
}

// writeVectorsFile 以小端二进制格式写入向量文件：
// magic | version | dim | count | count*dim 个 float32。
// 先写临时文件再原子重命名，避免读到半写状态。
func writeVectorsFile(path string, idx *FlatIndex) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	header := []uint32{vectorsMagic, vectorsVersion, uint32(idx.dim), uint32(len(idx.vectors))}
	for _, v := range header {
		if err := binary.Write(f, binary.LittleEndian, v); err != nil {
			f.Close()
			return err
		}
	}
	for _, vec := range idx.vectors {
		for _, val := range vec {
			if err := binary.Write(f, binary.LittleEndian, math.Float32bits(val)); err != nil {
				f.Close()
				return err
			}
		}
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// readVectorsFile 读取并校验向量文件。
func readVectorsFile(path string) (*FlatIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var magic, version, dim, count uint32
	for _, p := range []*uint32{&magic, &version, &dim, &count} {
		if err := binary.Read(f, binary.LittleEndian, p); err != nil {
			return nil, fmt.Errorf("向量文件头损坏: %w", err)
		}
	}
	if magic != vectorsMagic {
		return nil, fmt.Errorf("向量文件魔数不正确: %#x", magic)
	}
	if version != vectorsVersion {
		return nil, fmt.Errorf("不支持的向量文件版本: %d", version)
	}

	idx, err := NewFlatIndex(int(dim))
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < count; i++ {
		vec := make([]float32, dim)
		for j := range vec {
			var bits uint32
			if err := binary.Read(f, binary.LittleEndian, &bits); err != nil {
				return nil, fmt.Errorf("向量数据不完整 (vector=%d): %w", i, err)
			}
			vec[j] = math.Float32frombits(bits)
		}
		if err := idx.Add(vec); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// writeChunksFile 将分块文本列表序列化为 JSON 数组，原子写入。
func writeChunksFile(path string, chunks []string) error {
	data, err := json.Marshal(chunks)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// readChunksFile 读取分块文本列表。
func readChunksFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var chunks []string
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("分块文件损坏: %w", err)
	}
	return chunks, nil
}
