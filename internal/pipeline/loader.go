package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"mental-care-go/pkg/log"
)

// ErrUnsupportedFormat 表示文件扩展名不在支持列表内。
var ErrUnsupportedFormat = errors.New("unsupported document format")

var plainTextExts = map[string]bool{".txt": true, ".md": true, ".csv": true, ".json": true}

var tikaExts = map[string]bool{
	".pdf": true, ".docx": true, ".doc": true, ".html": true, ".htm": true,
	".rtf": true, ".odt": true, ".pptx": true, ".epub": true,
}

// TextExtractor 从二进制文档中提取纯文本，由 Tika 客户端实现。
type TextExtractor interface {
	ExtractText(ctx context.Context, r io.Reader, fileName string) (string, error)
}

// Document 是加载后的源文档，ID 为文件名。
type Document struct {
	ID   string
	Text string
}

// Loader 按扩展名选择直接读取或交给 Tika 解析。
type Loader struct {
	extractor TextExtractor
}

// NewLoader 创建 Loader；extractor 为 nil 时仅支持纯文本格式。
func NewLoader(extractor TextExtractor) *Loader {
	return &Loader{extractor: extractor}
}

// Supported 判断文件名是否可被加载。
func (l *Loader) Supported(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	return plainTextExts[ext] || (tikaExts[ext] && l.extractor != nil)
}

// LoadFile 读取本地文件。
func (l *Loader) LoadFile(ctx context.Context, path string) (Document, error) {
	if !l.Supported(path) {
		return Document{}, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("打开文件失败: %w", err)
	}
	defer f.Close()
	return l.Load(ctx, f, filepath.Base(path))
}

// Load 从 reader 读取名为 fileName 的文档。
func (l *Loader) Load(ctx context.Context, r io.Reader, fileName string) (Document, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	var text string
	switch {
	case plainTextExts[ext]:
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(r); err != nil {
			return Document{}, fmt.Errorf("读取文件内容失败: %w", err)
		}
		if !utf8.Valid(buf.Bytes()) {
			return Document{}, fmt.Errorf("%s 不是合法的 UTF-8 文本", fileName)
		}
		text = buf.String()
	case tikaExts[ext] && l.extractor != nil:
		extracted, err := l.extractor.ExtractText(ctx, r, fileName)
		if err != nil {
			return Document{}, fmt.Errorf("使用 Tika 提取文本失败: %w", err)
		}
		text = extracted
	default:
		return Document{}, fmt.Errorf("%s: %w", fileName, ErrUnsupportedFormat)
	}

	if strings.TrimSpace(text) == "" {
		log.Warnf("[Loader] 文件 '%s' 提取的文本为空", fileName)
	}
	log.Infof("[Loader] 文件 '%s' 加载成功, 内容长度: %d 字符", fileName, utf8.RuneCountInString(text))
	return Document{ID: fileName, Text: text}, nil
}
