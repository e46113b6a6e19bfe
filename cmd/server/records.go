// Package main provides the recommendation server entry point.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/se-wein/kumrec-go/internal/storage"
)

// importRecords loads program records from a JSON file into the database.
// The file is an array of {"id": ..., "text": ...} objects; entries missing
// either field are skipped.
func importRecords(ctx context.Context, db *storage.DB, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read records file: %w", err)
	}

	var items []struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return 0, fmt.Errorf("parse records file: %w", err)
	}

	rows := make([]storage.ProgramRow, 0, len(items))
	for _, item := range items {
		if item.ID == "" || item.Text == "" {
			continue
		}
		rows = append(rows, storage.ProgramRow{ID: item.ID, Text: item.Text})
	}

	if err := db.SavePrograms(ctx, rows); err != nil {
		return 0, fmt.Errorf("save records: %w", err)
	}
	return len(rows), nil
}
