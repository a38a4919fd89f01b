package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"mental-care-go/pkg/log"
)

// readJSONFile 读取 path 解码到 v。文件不存在时保持 v 为零值；内容损坏时先备份为 .corrupt-* 再按空数据处理。
func readJSONFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("读取文件 %s 失败: %w", path, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		// 先把坏文件挪开，之后的写入不会覆盖掉其中仍可人工恢复的数据
		backup := fmt.Sprintf("%s.corrupt-%d", path, time.Now().UnixNano())
		if rerr := os.Rename(path, backup); rerr != nil {
			return fmt.Errorf("文件 %s 内容损坏且无法备份: %v: %w", path, rerr, err)
		}
		log.Warnf("[JSONStore] 文件 %s 内容损坏，已备份到 %s 并按空数据处理: %v", path, backup, err)
		return nil
	}
	return nil
}

// writeJSONFile 先写临时文件再 rename，读者不会看到写了一半的文件。
func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化 %s 失败: %w", path, err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建目录 %s 失败: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("替换文件 %s 失败: %w", path, err)
	}
	return nil
}
