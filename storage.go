package researchagent

import (
	"context"
	"fmt"
)

// Storage persists finished interactions across process restarts.
type Storage interface {
	SaveInteraction(ctx context.Context, interaction Interaction) error

	// Interactions returns stored interactions for a session, oldest
	// first, honoring limit/offset over the most recent entries.
	Interactions(ctx context.Context, sessionID string, limit int, offset int) ([]Interaction, error)

	Close() error
}

// SeedMemory loads a stored conversation into memory so a new session can
// continue where an earlier one stopped. limit <= 0 loads everything the
// storage returns for the session.
func SeedMemory(ctx context.Context, mem Memory, store Storage, sessionID string, limit int) error {
	if limit <= 0 {
		limit = defaultMemorySize
	}
	interactions, err := store.Interactions(ctx, sessionID, limit, 0)
	if err != nil {
		return fmt.Errorf("loading stored interactions: %w", err)
	}
	for _, interaction := range interactions {
		if err := mem.Append(ctx, interaction); err != nil {
			return fmt.Errorf("seeding memory: %w", err)
		}
	}
	return nil
}
