package researchagent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var _ Storage = &PostgresStorage{}

// interactionRecord is the gorm model backing PostgresStorage.
type interactionRecord struct {
	ID        string `gorm:"primaryKey"`
	SessionID string `gorm:"index:idx_interactions_session"`
	Query     string
	Answer    string
	ToolsUsed string
	CreatedAt time.Time `gorm:"index:idx_interactions_session"`
}

func (interactionRecord) TableName() string {
	return "interactions"
}

// PostgresStorage implements the Storage interface on PostgreSQL via gorm.
type PostgresStorage struct {
	db *gorm.DB
}

// NewPostgresStorage connects to the given DSN and migrates the schema.
func NewPostgresStorage(dsn string) (*PostgresStorage, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&interactionRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &PostgresStorage{db: db}, nil
}

func (s *PostgresStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *PostgresStorage) SaveInteraction(ctx context.Context, interaction Interaction) error {
	record := interactionRecord{
		ID:        interaction.ID,
		SessionID: interaction.SessionID,
		Query:     interaction.Query,
		Answer:    interaction.Answer,
		ToolsUsed: strings.Join(interaction.ToolsUsed, ","),
		CreatedAt: interaction.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to save interaction: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Interactions(ctx context.Context, sessionID string, limit int, offset int) ([]Interaction, error) {
	var records []interactionRecord
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}

	interactions := make([]Interaction, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		record := records[i]
		interaction := Interaction{
			ID:        record.ID,
			SessionID: record.SessionID,
			Query:     record.Query,
			Answer:    record.Answer,
			CreatedAt: record.CreatedAt,
		}
		if record.ToolsUsed != "" {
			interaction.ToolsUsed = strings.Split(record.ToolsUsed, ",")
		}
		interactions = append(interactions, interaction)
	}

	return interactions, nil
}
