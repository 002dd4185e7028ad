// Package settings manages the user's saved instruction presets.
package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hercegdoo/aicompose/internal/domain"
	"github.com/hercegdoo/aicompose/internal/encode"
)

// MaxInstructions caps how many presets one installation may hold.
const MaxInstructions = 20

const (
	maxTitleLength = 100
	maxTextLength  = 2000
)

// Store persists instruction presets.
type Store interface {
	SaveInstruction(ctx context.Context, instruction domain.Instruction) error
	DeleteInstruction(ctx context.Context, id string) error
	ListInstructions(ctx context.Context) ([]domain.Instruction, error)
	CountInstructions(ctx context.Context) (int, error)
}

// Service applies validation and the preset cap in front of the store.
// Title and text are entity-escaped before they are persisted, so stored
// values are always safe to echo into any surface.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates the settings service.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Save validates and persists a new preset, returning it with its
// assigned ID.
func (s *Service) Save(ctx context.Context, title, text string) (domain.Instruction, error) {
	if verr := validate(title, text); verr != nil {
		return domain.Instruction{}, verr
	}

	count, err := s.store.CountInstructions(ctx)
	if err != nil {
		return domain.Instruction{}, fmt.Errorf("count instructions: %w", err)
	}
	if count >= MaxInstructions {
		return domain.Instruction{}, domain.NewValidationError([]string{
			fmt.Sprintf("cannot save more than %d instructions", MaxInstructions),
		})
	}

	instruction := domain.Instruction{
		ID:        uuid.NewString(),
		Title:     encode.ForTransport(title),
		Text:      encode.ForTransport(text),
		CreatedAt: s.now(),
	}
	if err := s.store.SaveInstruction(ctx, instruction); err != nil {
		return domain.Instruction{}, fmt.Errorf("save instruction: %w", err)
	}
	return instruction, nil
}

// Delete removes a preset by ID.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.NewValidationError([]string{"instruction id is required"})
	}
	if err := s.store.DeleteInstruction(ctx, id); err != nil {
		return fmt.Errorf("delete instruction: %w", err)
	}
	return nil
}

// List returns all saved presets, newest first.
func (s *Service) List(ctx context.Context) ([]domain.Instruction, error) {
	instructions, err := s.store.ListInstructions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list instructions: %w", err)
	}
	return instructions, nil
}

func validate(title, text string) *domain.ValidationError {
	var errs []string
	if title == "" {
		errs = append(errs, "instruction title is required")
	}
	if len(title) > maxTitleLength {
		errs = append(errs, fmt.Sprintf("instruction title must be at most %d characters", maxTitleLength))
	}
	if text == "" {
		errs = append(errs, "instruction text is required")
	}
	if len(text) > maxTextLength {
		errs = append(errs, fmt.Sprintf("instruction text must be at most %d characters", maxTextLength))
	}
	if len(errs) > 0 {
		return domain.NewValidationError(errs)
	}
	return nil
}
