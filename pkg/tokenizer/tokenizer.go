// Package tokenizer 提供基于 tiktoken 的 token 计数与切分。
package tokenizer

import (
	"fmt"
	"os"

	"mental-care-go/internal/config"

	tiktoken "github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// DefaultEncoding 与 OpenAI gpt-4o-mini / ada-002 所用编码一致。
const DefaultEncoding = "cl100k_base"

// Tokenizer 把文本编码为 token 序列并可解码回文本。
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

type tiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// New 使用指定编码创建 Tokenizer。
func New(encoding string) (Tokenizer, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: get encoding %s: %w", encoding, err)
	}
	return &tiktokenTokenizer{enc: enc}, nil
}

// NewFromConfig 按配置选择 BPE 词表来源后创建 Tokenizer。
func NewFromConfig(cfg config.TokenizerConfig) (Tokenizer, error) {
	if cfg.Offline {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	} else {
		if cfg.CacheDir != "" {
			// tiktoken-go 只从环境变量读取缓存目录
			if err := os.Setenv("TIKTOKEN_CACHE_DIR", cfg.CacheDir); err != nil {
				return nil, fmt.Errorf("tokenizer: set cache dir: %w", err)
			}
		}
		tiktoken.SetBpeLoader(tiktoken.NewDefaultBpeLoader())
	}
	return New(cfg.Encoding)
}

func (t *tiktokenTokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *tiktokenTokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

// Count 返回文本的 token 数。
func Count(t Tokenizer, text string) int {
	if text == "" {
		return 0
	}
	return len(t.Encode(text))
}
