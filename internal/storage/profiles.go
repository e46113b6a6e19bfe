package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/se-wein/kumrec-go/internal/errors"
	"github.com/se-wein/kumrec-go/internal/profile"
)

// SaveProfile upserts a user profile. Interests and busy blocks are stored
// as JSON documents.
func (db *DB) SaveProfile(ctx context.Context, p *profile.Profile) error {
	if p.UserID == "" {
		return fmt.Errorf("save profile: %w: empty user ID", apperrors.ErrInvalidInput)
	}

	interests, err := json.Marshal(p.Interests)
	if err != nil {
		return fmt.Errorf("marshal interests: %w", err)
	}
	busy, err := json.Marshal(p.Busy)
	if err != nil {
		return fmt.Errorf("marshal busy blocks: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO profiles (user_id, interests, busy, updated_at)
		VALUES (?, ?, ?, ?)
	`, p.UserID, string(interests), string(busy), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.UserID, err)
	}
	return nil
}

// GetProfile loads a user profile. Returns ErrUserNotFound when no row exists.
func (db *DB) GetProfile(ctx context.Context, userID string) (*profile.Profile, error) {
	var interests, busy string
	err := db.conn.QueryRowContext(ctx, `
		SELECT interests, busy FROM profiles WHERE user_id = ?
	`, userID).Scan(&interests, &busy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", userID, apperrors.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", userID, err)
	}

	p := &profile.Profile{UserID: userID}
	if err := json.Unmarshal([]byte(interests), &p.Interests); err != nil {
		return nil, fmt.Errorf("unmarshal interests for %s: %w", userID, err)
	}
	if err := json.Unmarshal([]byte(busy), &p.Busy); err != nil {
		return nil, fmt.Errorf("unmarshal busy blocks for %s: %w", userID, err)
	}
	return p, nil
}
