package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// CacheKey derives the content-addressed cache key for an embedding.
// The model name is part of the key so vectors from different embedding
// spaces never collide.
func CacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "|" + text))
	return hex.EncodeToString(sum[:])
}

// GetEmbedding returns the cached vector for (model, text), or (nil, false)
// on a miss.
func (db *DB) GetEmbedding(ctx context.Context, model, text string) ([]float32, bool, error) {
	var encoded string
	err := db.conn.QueryRowContext(ctx, `
		SELECT vector FROM embedding_cache WHERE key = ?
	`, CacheKey(model, text)).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get embedding: %w", err)
	}

	var vec []float32
	if err := json.Unmarshal([]byte(encoded), &vec); err != nil {
		return nil, false, fmt.Errorf("unmarshal embedding: %w", err)
	}
	return vec, true, nil
}

// PutEmbedding stores a vector under its content-addressed key.
func (db *DB) PutEmbedding(ctx context.Context, model, text string, vec []float32) error {
	encoded, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO embedding_cache (key, model, vector, created_at)
		VALUES (?, ?, ?, ?)
	`, CacheKey(model, text), model, string(encoded), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("put embedding: %w", err)
	}
	return nil
}

// CountEmbeddings returns the number of cached vectors for a model.
func (db *DB) CountEmbeddings(ctx context.Context, model string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM embedding_cache WHERE model = ?", model).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return n, nil
}
