package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"mental-care-go/internal/model"
	"mental-care-go/pkg/log"
)

const (
	vectorFile   = "vector.json"
	docstoreFile = "docstore.json"
)

// vectorData 是 vector.json 的结构：索引 id 与 chunk id 到向量的映射。
type vectorData struct {
	IndexID    string               `json:"index_id"`
	Embeddings map[string][]float32 `json:"embeddings"`
}

// LocalIndex 是持久化到本地目录的暴力检索索引，规模为一本手册量级。
// vector.json 被其他进程（如 ingest 命令）改写后，下一次访问会重新加载。
type LocalIndex struct {
	dir     string
	indexID string

	mu       sync.RWMutex
	vecs     map[string][]float32
	chunks   map[string]model.DocumentChunk
	loadedAt time.Time
}

// OpenLocalIndex 从 dir 加载索引；目录或文件不存在时返回空索引。
func OpenLocalIndex(dir, indexID string) (*LocalIndex, error) {
	idx := &LocalIndex{dir: dir, indexID: indexID}
	if err := idx.load(); err != nil {
		return nil, err
	}
	log.Infof("[VectorStore] 已加载本地索引 %s，共 %d 个分块", indexID, len(idx.vecs))
	return idx, nil
}

// load 从磁盘读取索引，调用方持有写锁或尚未发布 idx。
func (i *LocalIndex) load() error {
	i.vecs = make(map[string][]float32)
	i.chunks = make(map[string]model.DocumentChunk)
	i.loadedAt = i.fileModTime()

	var vd vectorData
	if err := readFile(filepath.Join(i.dir, vectorFile), &vd); err != nil {
		return err
	}
	if vd.IndexID != "" && vd.IndexID != i.indexID {
		log.Warnf("[VectorStore] 本地索引 id %q 与配置 %q 不一致，按空索引处理", vd.IndexID, i.indexID)
		return nil
	}
	chunks := make(map[string]model.DocumentChunk)
	if err := readFile(filepath.Join(i.dir, docstoreFile), &chunks); err != nil {
		return err
	}
	for id, v := range vd.Embeddings {
		if c, ok := chunks[id]; ok {
			i.vecs[id] = v
			i.chunks[id] = c
		}
	}
	return nil
}

func (i *LocalIndex) fileModTime() time.Time {
	info, err := os.Stat(filepath.Join(i.dir, vectorFile))
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// refresh 在 vector.json 的修改时间变化时重新加载。
func (i *LocalIndex) refresh() error {
	i.mu.RLock()
	stale := !i.fileModTime().Equal(i.loadedAt)
	i.mu.RUnlock()
	if !stale {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.fileModTime().Equal(i.loadedAt) {
		return nil
	}
	if err := i.load(); err != nil {
		return err
	}
	log.Infof("[VectorStore] 本地索引文件已变化，重新加载 %s，共 %d 个分块", i.indexID, len(i.vecs))
	return nil
}

// Len 返回索引中的分块数量。
func (i *LocalIndex) Len() int {
	if err := i.refresh(); err != nil {
		log.Warnf("[VectorStore] 重新加载本地索引失败: %v", err)
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.vecs)
}

// Upsert 写入分块并立即持久化。
func (i *LocalIndex) Upsert(_ context.Context, chunks []model.DocumentChunk) error {
	if err := i.refresh(); err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("分块 %s 缺少向量", c.ChunkID)
		}
		i.vecs[c.ChunkID] = c.Embedding
		stored := c
		stored.Embedding = nil
		i.chunks[c.ChunkID] = stored
	}
	return i.persist()
}

// DeleteDoc 删除 docID 的全部分块并持久化。
func (i *LocalIndex) DeleteDoc(_ context.Context, docID string) error {
	if err := i.refresh(); err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	removed := 0
	for id, c := range i.chunks {
		if c.DocID == docID {
			delete(i.chunks, id)
			delete(i.vecs, id)
			removed++
		}
	}
	if removed == 0 {
		return nil
	}
	log.Infof("[VectorStore] 已删除文档 %s 的 %d 个旧分块", docID, removed)
	return i.persist()
}

// Query 返回与 vector 最相似的 k 个分块，按得分降序，同分按 chunk id 升序。
func (i *LocalIndex) Query(_ context.Context, vector []float32, k int) ([]model.ScoredChunk, error) {
	if k <= 0 {
		return []model.ScoredChunk{}, nil
	}
	if err := i.refresh(); err != nil {
		return nil, err
	}
	i.mu.RLock()
	defer i.mu.RUnlock()

	results := make([]model.ScoredChunk, 0, len(i.vecs))
	for id, v := range i.vecs {
		results = append(results, model.ScoredChunk{Chunk: i.chunks[id], Score: cosine(vector, v)})
	}
	sort.Slice(results, func(a, b int) bool {
		if results[a].Score != results[b].Score {
			return results[a].Score > results[b].Score
		}
		return results[a].Chunk.ChunkID < results[b].Chunk.ChunkID
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (i *LocalIndex) persist() error {
	if err := os.MkdirAll(i.dir, 0o755); err != nil {
		return fmt.Errorf("创建索引目录失败: %w", err)
	}
	// docstore 先写，vector.json 的修改时间是重新加载的信号
	if err := writeFile(filepath.Join(i.dir, docstoreFile), i.chunks); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(i.dir, vectorFile), vectorData{IndexID: i.indexID, Embeddings: i.vecs}); err != nil {
		return err
	}
	i.loadedAt = i.fileModTime()
	return nil
}

func readFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("读取 %s 失败: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Warnf("[VectorStore] %s 内容损坏，按空索引处理: %v", path, err)
	}
	return nil
}

func writeFile(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return os.Rename(tmp, path)
}
