package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"mental-care-go/pkg/log"
)

// IngestionCache 以 sha256(步骤名+参数+输入) 为键缓存每一步的转换结果。
type IngestionCache struct {
	path    string
	mu      sync.Mutex
	entries map[string]json.RawMessage
	dirty   bool
}

// LoadIngestionCache 从文件加载缓存；文件不存在或损坏时返回空缓存。path 为空时只保存在内存。
func LoadIngestionCache(path string) *IngestionCache {
	c := &IngestionCache{path: path, entries: make(map[string]json.RawMessage)}
	if path == "" {
		return c
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c
	}
	if err != nil {
		log.Warnf("[IngestionCache] 读取缓存文件 %s 失败，使用空缓存: %v", path, err)
		return c
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		log.Warnf("[IngestionCache] 缓存文件 %s 内容损坏，使用空缓存: %v", path, err)
		c.entries = make(map[string]json.RawMessage)
	}
	log.Infof("[IngestionCache] 已加载 %d 条缓存", len(c.entries))
	return c
}

// CacheKey 计算缓存键。
func CacheKey(step, params, input string) string {
	h := sha256.New()
	for _, part := range []string{step, params, input} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get 取出缓存值解码到 v，命中返回 true。
func (c *IngestionCache) Get(key string, v interface{}) bool {
	c.mu.Lock()
	raw, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

// Put 写入缓存值。
func (c *IngestionCache) Put(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.entries[key] = raw
	c.dirty = true
	c.mu.Unlock()
	return nil
}

// Len 返回缓存条目数。
func (c *IngestionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Persist 把缓存写回文件，没有变化时跳过。
func (c *IngestionCache) Persist() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.path == "" || !c.dirty {
		return nil
	}
	data, err := json.Marshal(c.entries)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("创建缓存目录失败: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("写入缓存文件失败: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("替换缓存文件失败: %w", err)
	}
	c.dirty = false
	return nil
}
