package tokenizer

import (
	"testing"
	"unicode/utf8"

	"mental-care-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWords_RoundTrip(t *testing.T) {
	w := NewWords()
	tokens := w.Encode("tôi  cảm thấy   tốt")
	assert.Len(t, tokens, 4)
	assert.Equal(t, "tôi cảm thấy tốt", w.Decode(tokens))
}

func TestWords_StableIDs(t *testing.T) {
	w := NewWords()
	a := w.Encode("a b a")
	assert.Equal(t, a[0], a[2])
	assert.NotEqual(t, a[0], a[1])
}

func TestCount(t *testing.T) {
	w := NewWords()
	assert.Equal(t, 0, Count(w, ""))
	assert.Equal(t, 3, Count(w, "một hai ba"))
}

func TestNewFromConfig_OfflineNeedsNoNetwork(t *testing.T) {
	tok, err := NewFromConfig(config.TokenizerConfig{Encoding: DefaultEncoding, Offline: true})
	require.NoError(t, err)

	text := "Tôi cảm thấy buồn và mệt mỏi suốt nhiều tuần."
	tokens := tok.Encode(text)
	assert.NotEmpty(t, tokens)
	decoded := tok.Decode(tokens)
	assert.True(t, utf8.ValidString(decoded))
	assert.Equal(t, text, decoded)
}
