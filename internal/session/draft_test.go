package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qrforge/qrforge/internal/store"
)

func TestDraftRoundTripThroughKeyValue(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()

	s, clock := newTestSession(t, nil)
	s.SetContent("one")
	_, _ = s.Generate()
	s.SetContent("two")
	_, _ = s.Generate()
	_, _ = s.Undo()

	require.NoError(t, s.SaveDraft(ctx, kv))

	restored, err := LoadDraft(ctx, kv, nil, WithClock(clock.Now), WithIDGenerator(sequentialIDs()))
	require.NoError(t, err)
	require.Equal(t, s.Current(), restored.Current())
	require.Equal(t, s.State(), restored.State())
	require.True(t, restored.CanUndo())
	require.True(t, restored.CanRedo())

	next, ok := restored.Redo()
	require.True(t, ok)
	require.Equal(t, "two", next.Content)
}

func TestLoadDraftWithoutStoredDraft(t *testing.T) {
	s, err := LoadDraft(context.Background(), store.NewMemory(), nil)
	require.NoError(t, err)
	require.Equal(t, StateEditing, s.State())
	require.Empty(t, s.Current().Content)
}

func TestLoadDraftRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	require.NoError(t, kv.Put(ctx, DraftKey, "not json"))

	_, err := LoadDraft(ctx, kv, nil)
	require.Error(t, err)

	require.NoError(t, DiscardDraft(ctx, kv))
	_, found, err := kv.Get(ctx, DraftKey)
	require.NoError(t, err)
	require.False(t, found)
}

func TestRestoreRejectsUnknownState(t *testing.T) {
	s, _ := newTestSession(t, nil)
	d := s.Draft()
	d.State = "exploded"
	_, err := Restore(d, nil)
	require.Error(t, err)
}
