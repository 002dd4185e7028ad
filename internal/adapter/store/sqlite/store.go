// Package sqlite persists instruction presets in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hercegdoo/aicompose/internal/domain"
)

// Store implements the settings.Store interface using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables and indexes if they don't exist.
func (s *Store) createSchema() error {
	schema := `
	-- Saved instruction presets
	CREATE TABLE IF NOT EXISTS instructions (
		instruction_id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_instructions_created ON instructions(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveInstruction stores a new preset.
func (s *Store) SaveInstruction(ctx context.Context, instruction domain.Instruction) error {
	query := `
		INSERT INTO instructions (instruction_id, title, text, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		instruction.ID,
		instruction.Title,
		instruction.Text,
		instruction.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert instruction: %w", err)
	}
	return nil
}

// DeleteInstruction removes a preset. Deleting an unknown ID is not an
// error; the outcome is the same.
func (s *Store) DeleteInstruction(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM instructions WHERE instruction_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete instruction: %w", err)
	}
	return nil
}

// ListInstructions returns all presets, newest first.
func (s *Store) ListInstructions(ctx context.Context) ([]domain.Instruction, error) {
	query := `
		SELECT instruction_id, title, text, created_at
		FROM instructions
		ORDER BY created_at DESC, instruction_id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query instructions: %w", err)
	}
	defer rows.Close()

	var instructions []domain.Instruction
	for rows.Next() {
		var instruction domain.Instruction
		var createdAt int64
		if err := rows.Scan(&instruction.ID, &instruction.Title, &instruction.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan instruction: %w", err)
		}
		instruction.CreatedAt = time.Unix(createdAt, 0)
		instructions = append(instructions, instruction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate instructions: %w", err)
	}

	return instructions, nil
}

// CountInstructions returns the number of stored presets.
func (s *Store) CountInstructions(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM instructions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count instructions: %w", err)
	}
	return count, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
