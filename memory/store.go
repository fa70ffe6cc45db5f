package memory

import (
	"context"

	"gorm.io/gorm"
)

// ChunkStore 持久化记忆分块.
type ChunkStore interface {
	// SaveChunks 在一个事务内写入全部分块.
	SaveChunks(ctx context.Context, chunks []Chunk) error

	// ListChunks 按写入顺序返回患者的分块，不含向量.
	ListChunks(ctx context.Context, patientID string) ([]Chunk, error)
}

// GormStore 是基于 GORM 的 ChunkStore.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore 创建 GORM 分块存储.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// saveBatchSize 单条 INSERT 的最大行数
const saveBatchSize = 100

// SaveChunks 实现 ChunkStore.
func (s *GormStore) SaveChunks(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(chunks, saveBatchSize).Error
	})
}

// ListChunks 实现 ChunkStore.
func (s *GormStore) ListChunks(ctx context.Context, patientID string) ([]Chunk, error) {
	var chunks []Chunk
	err := s.db.WithContext(ctx).
		Select("id", "patient_id", "chunk_index", "text_chunk", "token_count", "model", "created_at").
		Where("patient_id = ?", patientID).
		Order("id ASC").
		Find(&chunks).Error
	if err != nil {
		return nil, err
	}
	return chunks, nil
}
