package settings

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hercegdoo/aicompose/internal/domain"
)

type fakeStore struct {
	saved   []domain.Instruction
	deleted []string
	listErr error
}

func (f *fakeStore) SaveInstruction(_ context.Context, instruction domain.Instruction) error {
	f.saved = append(f.saved, instruction)
	return nil
}

func (f *fakeStore) DeleteInstruction(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) ListInstructions(_ context.Context) ([]domain.Instruction, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.saved, nil
}

func (f *fakeStore) CountInstructions(_ context.Context) (int, error) {
	return len(f.saved), nil
}

func TestService_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns an id and escapes content", func(t *testing.T) {
		store := &fakeStore{}
		svc := NewService(store)

		saved, err := svc.Save(ctx, "Weekly <update>", "Remind the team & attach notes")
		require.NoError(t, err)

		assert.NotEmpty(t, saved.ID)
		assert.Equal(t, "Weekly &lt;update&gt;", saved.Title)
		assert.Equal(t, "Remind the team &amp; attach notes", saved.Text)
		require.Len(t, store.saved, 1)
	})

	t.Run("requires title and text", func(t *testing.T) {
		svc := NewService(&fakeStore{})

		_, err := svc.Save(ctx, "", "")

		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, verr.Messages, "instruction title is required")
		assert.Contains(t, verr.Messages, "instruction text is required")
	})

	t.Run("rejects oversized fields", func(t *testing.T) {
		svc := NewService(&fakeStore{})

		_, err := svc.Save(ctx, strings.Repeat("t", maxTitleLength+1), strings.Repeat("x", maxTextLength+1))

		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Len(t, verr.Messages, 2)
	})

	t.Run("enforces the preset cap", func(t *testing.T) {
		store := &fakeStore{}
		svc := NewService(store)

		for i := 0; i < MaxInstructions; i++ {
			_, err := svc.Save(ctx, "title", "text")
			require.NoError(t, err)
		}

		_, err := svc.Save(ctx, "one too many", "text")
		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Len(t, store.saved, MaxInstructions)
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes by id", func(t *testing.T) {
		store := &fakeStore{}
		svc := NewService(store)

		require.NoError(t, svc.Delete(ctx, "abc"))
		assert.Equal(t, []string{"abc"}, store.deleted)
	})

	t.Run("rejects an empty id", func(t *testing.T) {
		svc := NewService(&fakeStore{})

		err := svc.Delete(ctx, "")
		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr))
	})
}

func TestService_List(t *testing.T) {
	t.Run("wraps store failures", func(t *testing.T) {
		svc := NewService(&fakeStore{listErr: errors.New("disk gone")})

		_, err := svc.List(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "list instructions")
	})
}
