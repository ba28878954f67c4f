package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/qrforge/qrforge/internal/logger"
	"github.com/qrforge/qrforge/internal/qr"
)

func newRecord(id string, t qr.Type, content string, ts int64) qr.Record {
	r := qr.NewRecord(id, t, content, time.UnixMilli(ts))
	return r
}

func TestLocalStoreSaveListDelete(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(NewMemory(), nil)

	r1 := newRecord("a", qr.TypeURL, "https://example.com/", 1)
	r2 := newRecord("b", qr.TypeText, "hello", 2)

	require.NoError(t, s.Save(ctx, r1))
	require.NoError(t, s.Save(ctx, r2))

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []qr.Record{r1, r2}, records)

	removed, err := s.Delete(ctx, "a")
	require.NoError(t, err)
	require.True(t, removed)

	records, err = s.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []qr.Record{r2}, records)
}

func TestLocalStoreDeleteUnknownIsNoop(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(NewMemory(), nil)

	r := newRecord("a", qr.TypeText, "x", 1)
	require.NoError(t, s.Save(ctx, r))

	removed, err := s.Delete(ctx, "missing")
	require.NoError(t, err)
	require.False(t, removed)

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []qr.Record{r}, records)
}

func TestLocalStoreRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(NewMemory(), nil)

	first := newRecord("dup", qr.TypeText, "first", 1)
	require.NoError(t, s.Save(ctx, first))

	second := newRecord("dup", qr.TypeText, "second", 2)
	err := s.Save(ctx, second)
	require.ErrorIs(t, err, ErrDuplicateID)

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []qr.Record{first}, records)
}

func TestLocalStoreRejectsInvalidRecord(t *testing.T) {
	s := NewLocalStore(NewMemory(), nil)
	r := newRecord("a", qr.TypeText, "x", 1)
	r.Size = 10
	require.ErrorIs(t, s.Save(context.Background(), r), qr.ErrInvalidStyle)
}

func TestLocalStoreGet(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(NewMemory(), nil)

	r := newRecord("a", qr.TypePhone, "+1555", 1)
	require.NoError(t, s.Save(ctx, r))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, r, got)

	_, err = s.Get(ctx, "b")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorePersistsUnderCollectionKey(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	s := NewLocalStore(kv, nil)

	require.NoError(t, s.Save(ctx, newRecord("a", qr.TypeText, "x", 1)))

	raw, found, err := kv.Get(ctx, CollectionKey)
	require.NoError(t, err)
	require.True(t, found)
	require.JSONEq(t, `[{"id":"a","type":"text","content":"x","color":"#000000","backgroundColor":"#ffffff","size":200,"errorCorrection":"M","timestamp":1}]`, raw)

	// A second store over the same backend sees the same collection.
	other := NewLocalStore(kv, nil)
	records, err := other.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestLocalStoreCorruptCollection(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	require.NoError(t, kv.Put(ctx, CollectionKey, "{not json"))

	core, logs := observer.New(zap.WarnLevel)
	s := NewLocalStore(kv, logger.FromZap(zap.New(core)))

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Empty(t, records)
	require.Equal(t, 1, logs.FilterMessage("ignoring corrupt qr code collection").Len())

	// Deleting from a corrupt collection matches nothing.
	removed, err := s.Delete(ctx, "a")
	require.NoError(t, err)
	require.False(t, removed)

	// The next save replaces the corrupt collection.
	require.NoError(t, s.Save(ctx, newRecord("a", qr.TypeText, "x", 1)))
	records, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "a", records[0].ID)
	require.Equal(t, 3, logs.FilterMessage("ignoring corrupt qr code collection").Len())

	removed, err = s.Delete(ctx, "a")
	require.NoError(t, err)
	require.True(t, removed)
}

func TestLocalStoreNotifiesSubscribers(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(NewMemory(), nil)

	var changes []Change
	unsubscribe := s.Subscribe(func(c Change) { changes = append(changes, c) })

	require.NoError(t, s.Save(ctx, newRecord("a", qr.TypeText, "x", 1)))
	_, err := s.Delete(ctx, "a")
	require.NoError(t, err)
	_, err = s.Delete(ctx, "a")
	require.NoError(t, err)

	require.Equal(t, []Change{
		{Kind: ChangeSaved, ID: "a"},
		{Kind: ChangeDeleted, ID: "a", Removed: true},
		{Kind: ChangeDeleted, ID: "a", Removed: false},
	}, changes)

	unsubscribe()
	unsubscribe()
	require.NoError(t, s.Save(ctx, newRecord("b", qr.TypeText, "y", 2)))
	require.Len(t, changes, 3)
}

type failingKV struct{ err error }

func (f failingKV) Get(context.Context, string) (string, bool, error) { return "", false, f.err }
func (f failingKV) Put(context.Context, string, string) error        { return f.err }
func (f failingKV) Delete(context.Context, string) error              { return f.err }
func (f failingKV) Update(context.Context, string, func(string, bool) (string, error)) error {
	return f.err
}

func TestLocalStoreStorageFailure(t *testing.T) {
	ctx := context.Background()
	quota := errors.New("quota exceeded")

	core, logs := observer.New(zap.ErrorLevel)
	s := NewLocalStore(failingKV{err: quota}, logger.FromZap(zap.New(core)))

	notified := false
	s.Subscribe(func(Change) { notified = true })

	err := s.Save(ctx, newRecord("a", qr.TypeText, "x", 1))
	require.ErrorIs(t, err, quota)

	_, err = s.Delete(ctx, "a")
	require.ErrorIs(t, err, quota)

	_, err = s.List(ctx)
	require.ErrorIs(t, err, quota)

	require.False(t, notified)
	require.Equal(t, 3, logs.Len())
}
