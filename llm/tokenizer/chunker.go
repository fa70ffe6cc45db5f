package tokenizer

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Chunk 是按 token 窗口切出的一段文本.
type Chunk struct {
	Index  int
	Text   string
	Tokens []int
}

// Split 把文本编码后按 window 个 token 无重叠切分，每段再解码回文本.
// 最后一段可能不足 window.
//
// BPE token 可能只覆盖多字节字符的一部分：窗口末尾不完整的 UTF-8 序列
// 顺延到下一段文本，Tokens 仍按窗口切分. 无法补全的字节替换为 U+FFFD.
func Split(t Tokenizer, text string, window int) ([]Chunk, int, error) {
	if window <= 0 {
		return nil, 0, fmt.Errorf("chunk window must be positive, got %d", window)
	}

	tokens, err := t.Encode(text)
	if err != nil {
		return nil, 0, err
	}

	chunks := make([]Chunk, 0, (len(tokens)+window-1)/window)
	carry := ""
	for start := 0; start < len(tokens); start += window {
		end := min(start+window, len(tokens))
		part := tokens[start:end]
		decoded, err := t.Decode(part)
		if err != nil {
			return nil, 0, fmt.Errorf("decode chunk %d: %w", len(chunks), err)
		}

		decoded = carry + decoded
		carry = ""
		if end < len(tokens) {
			if cut := incompleteTail(decoded); cut > 0 {
				decoded, carry = decoded[:cut], decoded[cut:]
			}
		}

		chunks = append(chunks, Chunk{
			Index:  len(chunks),
			Text:   strings.ToValidUTF8(decoded, "\uFFFD"),
			Tokens: part,
		})
	}
	return chunks, len(tokens), nil
}

// incompleteTail 返回 s 末尾不完整 UTF-8 序列的起始下标，没有则返回 len(s).
func incompleteTail(s string) int {
	for i := len(s) - 1; i >= 0 && i >= len(s)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(s[i]) {
			continue
		}
		if utf8.FullRuneInString(s[i:]) {
			return len(s)
		}
		return i
	}
	return len(s)
}
