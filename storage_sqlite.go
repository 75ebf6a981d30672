package researchagent

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var _ Storage = &SQLiteStorage{}

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage creates a new SQLiteStorage instance with the provided
// database file path. It initializes the schema if it doesn't exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	storage := &SQLiteStorage{db: db}
	if err := storage.initDB(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return storage, nil
}

// initDB creates the necessary tables if they don't exist.
func (s *SQLiteStorage) initDB() error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS interactions (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		query TEXT NOT NULL,
		answer TEXT,
		tools_used TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_interactions_session ON interactions(session_id, created_at);`

	_, err := s.db.Exec(createTableSQL)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// SaveInteraction stores a finished interaction.
func (s *SQLiteStorage) SaveInteraction(ctx context.Context, interaction Interaction) error {
	query := `
	INSERT INTO interactions (id, session_id, query, answer, tools_used, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		interaction.ID,
		interaction.SessionID,
		interaction.Query,
		interaction.Answer,
		strings.Join(interaction.ToolsUsed, ","),
		interaction.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save interaction: %w", err)
	}

	return nil
}

// Interactions retrieves interaction history for the given session, oldest
// first. limit/offset select among the most recent entries.
func (s *SQLiteStorage) Interactions(ctx context.Context, sessionID string, limit int, offset int) ([]Interaction, error) {
	query := `
	SELECT id, session_id, query, answer, tools_used, created_at
	FROM interactions
	WHERE session_id = ?
	ORDER BY created_at DESC
	LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, sessionID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	var interactions []Interaction
	for rows.Next() {
		var interaction Interaction
		var answer, toolsUsed sql.NullString
		var createdAt time.Time
		if err := rows.Scan(&interaction.ID, &interaction.SessionID, &interaction.Query, &answer, &toolsUsed, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		interaction.Answer = answer.String
		if toolsUsed.Valid && toolsUsed.String != "" {
			interaction.ToolsUsed = strings.Split(toolsUsed.String, ",")
		}
		interaction.CreatedAt = createdAt
		interactions = append(interactions, interaction)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	// Reverse from newest-first query order to oldest-first.
	for i, j := 0, len(interactions)-1; i < j; i, j = i+1, j-1 {
		interactions[i], interactions[j] = interactions[j], interactions[i]
	}

	return interactions, nil
}
