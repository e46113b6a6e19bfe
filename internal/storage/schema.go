package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
// Note: WAL mode is configured in db.go.
func InitSchema(db *sql.DB) error {
	if err := createProgramsTable(db); err != nil {
		return err
	}
	if err := createProfilesTable(db); err != nil {
		return err
	}
	return createEmbeddingCacheTable(db)
}

func createProgramsTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS programs (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		event_start INTEGER,
		event_end INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_programs_event_start ON programs(event_start);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create programs table: %w", err)
	}
	return nil
}

func createProfilesTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		interests TEXT NOT NULL,
		busy TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create profiles table: %w", err)
	}
	return nil
}

func createEmbeddingCacheTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS embedding_cache (
		key TEXT PRIMARY KEY,
		model TEXT NOT NULL,
		vector TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_embedding_cache_model ON embedding_cache(model);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create embedding_cache table: %w", err)
	}
	return nil
}
