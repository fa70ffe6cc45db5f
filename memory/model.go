package memory

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Chunk 是一段已嵌入的记忆文本，对应表 memory_chunks.
// 向量以逗号拼接的浮点串落库.
type Chunk struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PatientID  string    `gorm:"size:64;not null;index:idx_memory_chunks_patient,priority:1" json:"patient_id"`
	ChunkIndex int       `gorm:"not null;index:idx_memory_chunks_patient,priority:2" json:"chunk_index"`
	Text       string    `gorm:"column:text_chunk;type:text;not null" json:"text"`
	Embedding  string    `gorm:"type:text;not null" json:"-"`
	TokenCount int       `gorm:"not null;default:0" json:"token_count"`
	Model      string    `gorm:"size:128;not null;default:''" json:"model"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName 返回表名.
func (Chunk) TableName() string {
	return "memory_chunks"
}

// Vector 解析落库的向量.
func (c *Chunk) Vector() ([]float64, error) {
	return DecodeVector(c.Embedding)
}

// EncodeVector 把向量编码为逗号分隔的字符串.
func EncodeVector(v []float64) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

// DecodeVector 是 EncodeVector 的逆操作.
func DecodeVector(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	v := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("embedding component %d: %w", i, err)
		}
		v[i] = f
	}
	return v, nil
}
