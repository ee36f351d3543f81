package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/easelhq/easel/backend/internal/board"
)

// SQLite implements Bridge on an embedded sqlite database and carries the
// board bookkeeping the management API needs.
type SQLite struct {
	db  *sql.DB
	log zerolog.Logger
}

// BoardRecord is the durable metadata for one board.
type BoardRecord struct {
	ID           string    `json:"id"`
	Owner        string    `json:"owner"`
	ElementCount int       `json:"element_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Open creates the database file if needed and bootstraps the schema.
func Open(path string, log zerolog.Logger) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL keeps readers off the writers' backs
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	log.Info().Str("path", path).Msg("store opened")
	return &SQLite{db: db, log: log}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS boards (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_boards_updated_at ON boards(updated_at DESC);

	CREATE TABLE IF NOT EXISTS board_snapshots (
		board_id TEXT PRIMARY KEY,
		elements BLOB NOT NULL,
		element_count INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (board_id) REFERENCES boards(id) ON DELETE CASCADE
	);
	`
	_, err := db.Exec(schema)
	return err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// LoadSnapshot returns the last saved element list for a board in saved
// order. The second return is false when no snapshot exists.
func (s *SQLite) LoadSnapshot(ctx context.Context, boardID string) ([]board.Element, bool, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT elements FROM board_snapshots WHERE board_id = ?",
		boardID,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var elements []board.Element
	if err := json.Unmarshal(blob, &elements); err != nil {
		return nil, false, fmt.Errorf("decode snapshot for board %s: %w", boardID, err)
	}
	return elements, true, nil
}

// SaveSnapshot replaces the durable element list for a board. An empty
// owner keeps whatever owner the board already has.
func (s *SQLite) SaveSnapshot(ctx context.Context, boardID, owner string, elements []board.Element) error {
	if elements == nil {
		elements = []board.Element{}
	}
	blob, err := json.Marshal(elements)
	if err != nil {
		return fmt.Errorf("encode snapshot for board %s: %w", boardID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO boards (id, owner) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner = CASE WHEN excluded.owner != '' THEN excluded.owner ELSE boards.owner END,
			updated_at = CURRENT_TIMESTAMP
	`, boardID, owner)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO board_snapshots (board_id, elements, element_count, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(board_id) DO UPDATE SET
			elements = excluded.elements,
			element_count = excluded.element_count,
			updated_at = CURRENT_TIMESTAMP
	`, boardID, blob, len(elements))
	if err != nil {
		return err
	}

	s.log.Debug().Str("board", boardID).Int("elements", len(elements)).Msg("snapshot saved")
	return nil
}

// GetBoard returns a board's durable record, or nil if unknown.
func (s *SQLite) GetBoard(ctx context.Context, boardID string) (*BoardRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT b.id, b.owner, COALESCE(sn.element_count, 0), b.created_at, b.updated_at
		FROM boards b
		LEFT JOIN board_snapshots sn ON sn.board_id = b.id
		WHERE b.id = ?
	`, boardID)

	var rec BoardRecord
	err := row.Scan(&rec.ID, &rec.Owner, &rec.ElementCount, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListBoards returns durable boards ordered by last save, newest first.
func (s *SQLite) ListBoards(ctx context.Context, limit, offset int) ([]BoardRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.owner, COALESCE(sn.element_count, 0), b.created_at, b.updated_at
		FROM boards b
		LEFT JOIN board_snapshots sn ON sn.board_id = b.id
		ORDER BY b.updated_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boards []BoardRecord
	for rows.Next() {
		var rec BoardRecord
		if err := rows.Scan(&rec.ID, &rec.Owner, &rec.ElementCount, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		boards = append(boards, rec)
	}
	return boards, rows.Err()
}

// DeleteBoard removes a board and its snapshot.
func (s *SQLite) DeleteBoard(ctx context.Context, boardID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM board_snapshots WHERE board_id = ?", boardID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM boards WHERE id = ?", boardID)
	return err
}

// Stats reports durable board and element totals.
func (s *SQLite) Stats(ctx context.Context) (map[string]any, error) {
	stats := make(map[string]any)

	var boardCount int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM boards").Scan(&boardCount); err != nil {
		return nil, err
	}
	stats["board_count"] = boardCount

	var elementCount int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(element_count), 0) FROM board_snapshots",
	).Scan(&elementCount); err != nil {
		return nil, err
	}
	stats["saved_element_count"] = elementCount

	return stats, nil
}
