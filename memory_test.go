package researchagent

import (
	"context"
	"fmt"
	"testing"
)

func TestBoundedMemoryTruncation(t *testing.T) {
	ctx := context.Background()
	mem := NewBoundedMemory(3)

	for i := 0; i < 5; i++ {
		interaction := NewInteraction("session-1", fmt.Sprintf("query-%d", i))
		interaction.Answer = fmt.Sprintf("answer-%d", i)
		if err := mem.Append(ctx, interaction); err != nil {
			t.Fatalf("Failed to append interaction: %v", err)
		}
	}

	if mem.Len() != 3 {
		t.Fatalf("Expected 3 retained interactions, got %d", mem.Len())
	}

	recent, err := mem.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Failed to read memory: %v", err)
	}
	if recent[0].Query != "query-2" {
		t.Errorf("Expected oldest retained interaction to be query-2, got %q", recent[0].Query)
	}
	if recent[len(recent)-1].Query != "query-4" {
		t.Errorf("Expected newest interaction to be query-4, got %q", recent[len(recent)-1].Query)
	}
}

func TestBoundedMemoryRecentLimit(t *testing.T) {
	ctx := context.Background()
	mem := NewBoundedMemory(10)

	for i := 0; i < 6; i++ {
		if err := mem.Append(ctx, NewInteraction("session-1", fmt.Sprintf("query-%d", i))); err != nil {
			t.Fatalf("Failed to append interaction: %v", err)
		}
	}

	recent, err := mem.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Failed to read memory: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 interactions, got %d", len(recent))
	}
	if recent[0].Query != "query-4" || recent[1].Query != "query-5" {
		t.Errorf("Expected the two newest interactions, got %q and %q", recent[0].Query, recent[1].Query)
	}
}

func TestBoundedMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	mem := NewBoundedMemory(10)
	if err := mem.Append(ctx, NewInteraction("session-1", "original")); err != nil {
		t.Fatalf("Failed to append interaction: %v", err)
	}

	recent, _ := mem.Recent(ctx, 0)
	recent[0].Query = "mutated"

	again, _ := mem.Recent(ctx, 0)
	if again[0].Query != "original" {
		t.Error("Mutating the returned slice should not affect stored interactions")
	}
}

func TestNewInteractionStampsIdentity(t *testing.T) {
	a := NewInteraction("session-1", "hello")
	b := NewInteraction("session-1", "hello")

	if a.ID == "" || b.ID == "" {
		t.Fatal("Expected non-empty interaction IDs")
	}
	if a.ID == b.ID {
		t.Error("Expected unique interaction IDs")
	}
	if a.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
	if a.SessionID != "session-1" {
		t.Errorf("Expected session ID to be preserved, got %q", a.SessionID)
	}
}
