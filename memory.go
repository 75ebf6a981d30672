// Package researchagent - memory.go
// Conversation memory: what the agent remembers between queries.
package researchagent

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Interaction is one completed query/answer exchange.
type Interaction struct {
	ID        string
	SessionID string
	Query     string
	Answer    string
	ToolsUsed []string
	CreatedAt time.Time
}

// NewInteraction stamps a fresh interaction for the given session.
func NewInteraction(sessionID, query string) Interaction {
	return Interaction{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Query:     query,
		CreatedAt: time.Now().UTC(),
	}
}

// Memory is an interface for reading/writing conversation data between
// queries.
type Memory interface {
	// Append records a finished interaction.
	Append(ctx context.Context, interaction Interaction) error
	// Recent returns up to limit interactions, oldest first. limit <= 0
	// means all retained interactions.
	Recent(ctx context.Context, limit int) ([]Interaction, error)
}

// BoundedMemory is an in-process Memory that retains only the most recent
// interactions, dropping the oldest once the size limit is exceeded.
type BoundedMemory struct {
	mu           sync.Mutex
	size         int
	interactions []Interaction
}

// NewBoundedMemory creates a memory retaining at most size interactions.
func NewBoundedMemory(size int) *BoundedMemory {
	if size <= 0 {
		size = defaultMemorySize
	}
	return &BoundedMemory{size: size}
}

func (m *BoundedMemory) Append(ctx context.Context, interaction Interaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interactions = append(m.interactions, interaction)
	if len(m.interactions) > m.size {
		m.interactions = m.interactions[len(m.interactions)-m.size:]
	}
	return nil
}

func (m *BoundedMemory) Recent(ctx context.Context, limit int) ([]Interaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	interactions := m.interactions
	if limit > 0 && len(interactions) > limit {
		interactions = interactions[len(interactions)-limit:]
	}
	out := make([]Interaction, len(interactions))
	copy(out, interactions)
	return out, nil
}

// Len reports how many interactions are currently retained.
func (m *BoundedMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.interactions)
}
