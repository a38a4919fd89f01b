package tokenizer

import "strings"

// Words 以空白分词，一个词即一个 token。不依赖网络下载 BPE 文件，
// 供离线环境和测试使用。
type Words struct {
	vocab []string
	ids   map[string]int
}

// NewWords 创建空词表的 Words 分词器。
func NewWords() *Words {
	return &Words{ids: make(map[string]int)}
}

func (w *Words) Encode(text string) []int {
	fields := strings.Fields(text)
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		id, ok := w.ids[f]
		if !ok {
			id = len(w.vocab)
			w.vocab = append(w.vocab, f)
			w.ids[f] = id
		}
		out = append(out, id)
	}
	return out
}

func (w *Words) Decode(tokens []int) string {
	parts := make([]string, 0, len(tokens))
	for _, id := range tokens {
		if id >= 0 && id < len(w.vocab) {
			parts = append(parts, w.vocab[id])
		}
	}
	return strings.Join(parts, " ")
}
