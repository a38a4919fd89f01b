package pipeline

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"mental-care-go/pkg/tokenizer"
)

// TokenSplitter 按 token 数切分文本，相邻分块共享 overlap 个 token。
type TokenSplitter struct {
	tok     tokenizer.Tokenizer
	size    int
	overlap int
}

// NewTokenSplitter 创建切分器，要求 0 <= overlap < size。
func NewTokenSplitter(tok tokenizer.Tokenizer, size, overlap int) (*TokenSplitter, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("非法的分块参数: size=%d overlap=%d", size, overlap)
	}
	return &TokenSplitter{tok: tok, size: size, overlap: overlap}, nil
}

// Params 返回参与缓存键计算的参数描述。
func (s *TokenSplitter) Params() string {
	return fmt.Sprintf("size=%d,overlap=%d", s.size, s.overlap)
}

// Split 把文本切成若干窗口，每个窗口不超过 size 个 token。
// 字节级 BPE 可能把一个多字节字符拆到两个 token 中，窗口边界会避开这种位置。
func (s *TokenSplitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	tokens := s.tok.Encode(text)
	if len(tokens) <= s.size {
		return []string{strings.TrimSpace(text)}
	}

	var chunks []string
	for start := 0; start < len(tokens); {
		start = s.alignStart(tokens, start)
		end := start + s.size
		if end > len(tokens) {
			end = len(tokens)
		}
		end = s.alignEnd(tokens, start, end)
		if chunk := strings.TrimSpace(s.tok.Decode(tokens[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(tokens) {
			break
		}
		next := end - s.overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// maxRuneSpan 是一个 UTF-8 字符最多跨越的 token 数。
const maxRuneSpan = utf8.UTFMax

// alignStart 跳过以续字节开头的 token。
func (s *TokenSplitter) alignStart(tokens []int, start int) int {
	for i := 0; i < maxRuneSpan && start < len(tokens)-1; i++ {
		head := s.tok.Decode(tokens[start : start+1])
		if head == "" || utf8.RuneStart(head[0]) {
			break
		}
		start++
	}
	return start
}

// alignEnd 回退 end，直到窗口不以半个字符结尾。
func (s *TokenSplitter) alignEnd(tokens []int, start, end int) int {
	if end == len(tokens) {
		return end
	}
	for i := 0; i < maxRuneSpan && end > start+1; i++ {
		text := s.tok.Decode(tokens[start:end])
		if r, size := utf8.DecodeLastRuneInString(text); r != utf8.RuneError || size != 1 {
			break
		}
		end--
	}
	return end
}
