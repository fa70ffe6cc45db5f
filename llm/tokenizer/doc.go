// Package tokenizer 提供基于 tiktoken 的 token 编解码，
// 以及把记忆文本按固定 token 窗口切分的 Split。
package tokenizer
