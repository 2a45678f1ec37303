package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// EmbeddingRepo caches embedding vectors keyed by a content hash.
type EmbeddingRepo struct {
	db *sql.DB
}

// NewEmbeddingRepo creates a new EmbeddingRepo.
func NewEmbeddingRepo(db *sql.DB) *EmbeddingRepo {
	return &EmbeddingRepo{db: db}
}

// Get returns the vector stored under key. ok is false on a miss.
func (r *EmbeddingRepo) Get(ctx context.Context, key string) ([]float32, bool, error) {
	var dim int
	var blob []byte

	err := r.db.QueryRowContext(ctx,
		"SELECT dim, vector FROM embeddings WHERE key = ?", key,
	).Scan(&dim, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query embedding: %w", err)
	}

	vec, err := decodeVector(blob, dim)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

// Put stores vec under key, replacing any previous entry.
func (r *EmbeddingRepo) Put(ctx context.Context, key, model string, vec []float32) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO embeddings (key, model, dim, vector) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET model = excluded.model, dim = excluded.dim, vector = excluded.vector`,
		key, model, len(vec), encodeVector(vec),
	)
	if err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	return nil
}

// CountByModel returns how many vectors are cached for model.
func (r *EmbeddingRepo) CountByModel(ctx context.Context, model string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings WHERE model = ?", model).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return count, nil
}

// encodeVector packs vec as little-endian float32s.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(blob []byte, dim int) ([]float32, error) {
	if len(blob) != 4*dim {
		return nil, fmt.Errorf("corrupt embedding: %d bytes for dimension %d", len(blob), dim)
	}
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}
	return vec, nil
}
