package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/qrforge/qrforge/internal/qr"
	"github.com/qrforge/qrforge/internal/store"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestSession(t *testing.T, saver Saver, opts ...Option) (*Session, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)}
	base := []Option{WithClock(clock.Now), WithIDGenerator(sequentialIDs())}
	return New(saver, append(base, opts...)...), clock
}

func TestNewSessionStartsEditingEmptyURL(t *testing.T) {
	s, _ := newTestSession(t, nil)

	cur := s.Current()
	require.Equal(t, qr.TypeURL, cur.Type)
	require.Empty(t, cur.Content)
	require.Equal(t, qr.DefaultStyle(), cur.Style())
	require.Equal(t, StateEditing, s.State())
	require.False(t, s.CanUndo())
	require.False(t, s.CanRedo())
}

func TestGenerateRejectsEmptyContent(t *testing.T) {
	s, _ := newTestSession(t, nil)

	_, err := s.Generate()
	require.ErrorIs(t, err, ErrEmptyContent)
	require.Equal(t, StateEditing, s.State())
	require.False(t, s.CanUndo())

	require.NoError(t, s.SetType(qr.TypeWifi))
	_, err = s.Generate()
	require.ErrorIs(t, err, ErrEmptyContent)
}

func TestGenerateTransitionsAndFormats(t *testing.T) {
	s, _ := newTestSession(t, nil)
	s.SetContent("example.com")

	res, err := s.Generate()
	require.NoError(t, err)
	require.Equal(t, "https://example.com/", res.Payload)
	require.Equal(t, StateGenerated, s.State())
	require.True(t, s.CanUndo())

	s.SetName("site")
	require.Equal(t, StateEditing, s.State())
}

func TestSetTypeResetsContent(t *testing.T) {
	s, _ := newTestSession(t, nil)
	s.SetContent("hello")

	require.NoError(t, s.SetType(qr.TypeWifi))
	require.Equal(t, `{"ssid":"","password":"","encryption":"WPA"}`, s.Current().Content)

	require.NoError(t, s.SetType(qr.TypeText))
	require.Empty(t, s.Current().Content)

	require.ErrorIs(t, s.SetType("fax"), qr.ErrInvalidType)
}

func TestSetStructured(t *testing.T) {
	s, _ := newTestSession(t, nil)

	require.NoError(t, s.SetStructured(qr.SMSContent{Number: "+1234567890", Message: "hi"}))
	require.Equal(t, qr.TypeSMS, s.Current().Type)
	require.Equal(t, "sms:%2B1234567890?body=hi", s.Payload().Payload)
}

func TestGenerateAndSaveRequireVCardNames(t *testing.T) {
	saver := store.NewLocalStore(store.NewMemory(), nil)
	s, _ := newTestSession(t, saver)
	ctx := context.Background()

	require.NoError(t, s.SetStructured(qr.VCardContent{FirstName: "Ada"}))

	_, err := s.Generate()
	require.ErrorIs(t, err, qr.ErrInvalidContent)
	require.Equal(t, StateEditing, s.State())
	require.False(t, s.CanUndo())

	_, err = s.Save(ctx)
	require.ErrorIs(t, err, qr.ErrInvalidContent)
	records, err := saver.List(ctx)
	require.NoError(t, err)
	require.Empty(t, records)

	require.NoError(t, s.SetStructured(qr.VCardContent{FirstName: "Ada", LastName: "Lovelace"}))
	_, err = s.Generate()
	require.NoError(t, err)
	_, err = s.Save(ctx)
	require.NoError(t, err)
}

func TestSetStyleMergesAndValidates(t *testing.T) {
	s, _ := newTestSession(t, nil)

	require.NoError(t, s.SetStyle(qr.Style{Color: "#ff0000"}))
	require.Equal(t, "#ff0000", s.Current().Color)
	require.Equal(t, qr.DefaultSize, s.Current().Size)

	require.ErrorIs(t, s.SetStyle(qr.Style{Size: 500}), qr.ErrInvalidStyle)
	require.Equal(t, qr.DefaultSize, s.Current().Size)
}

func TestUndoRedoRoundTrip(t *testing.T) {
	s, _ := newTestSession(t, nil)

	contents := []string{"a.example", "b.example", "c.example"}
	for _, c := range contents {
		s.SetContent(c)
		_, err := s.Generate()
		require.NoError(t, err)
	}
	final := s.Current()

	for range contents {
		_, ok := s.Undo()
		require.True(t, ok)
	}
	require.Empty(t, s.Current().Content)
	require.Equal(t, StateEditing, s.State())
	_, ok := s.Undo()
	require.False(t, ok)

	for range contents {
		_, ok := s.Redo()
		require.True(t, ok)
	}
	require.Equal(t, final, s.Current())
	require.Equal(t, StateGenerated, s.State())
	_, ok = s.Redo()
	require.False(t, ok)
}

func TestUndoRestoresPreviousGeneration(t *testing.T) {
	s, _ := newTestSession(t, nil)

	s.SetContent("first")
	_, err := s.Generate()
	require.NoError(t, err)

	s.SetContent("second")
	require.NoError(t, s.SetStyle(qr.Style{Color: "#123456"}))
	_, err = s.Generate()
	require.NoError(t, err)

	prev, ok := s.Undo()
	require.True(t, ok)
	require.Equal(t, "first", prev.Content)
	require.Equal(t, qr.DefaultColor, prev.Color)

	next, ok := s.Redo()
	require.True(t, ok)
	require.Equal(t, "second", next.Content)
	require.Equal(t, "#123456", next.Color)
}

func TestGenerateAfterUndoClearsRedo(t *testing.T) {
	s, _ := newTestSession(t, nil)

	s.SetContent("one")
	_, _ = s.Generate()
	s.SetContent("two")
	_, _ = s.Generate()

	_, ok := s.Undo()
	require.True(t, ok)
	require.True(t, s.CanRedo())

	s.SetContent("branch")
	_, err := s.Generate()
	require.NoError(t, err)
	require.False(t, s.CanRedo())
}

func TestHistoryLimit(t *testing.T) {
	s, _ := newTestSession(t, nil, WithHistoryLimit(2))
	for _, c := range []string{"a", "b", "c", "d"} {
		s.SetContent(c)
		_, _ = s.Generate()
	}

	var seen []string
	for {
		r, ok := s.Undo()
		if !ok {
			break
		}
		seen = append(seen, r.Content)
	}
	require.Equal(t, []string{"c", "b"}, seen)
}

func TestSaveAutoNamesAndAcknowledges(t *testing.T) {
	ctx := context.Background()
	ls := store.NewLocalStore(store.NewMemory(), nil)
	s, clock := newTestSession(t, ls)

	s.SetContent("example.com")
	_, err := s.Generate()
	require.NoError(t, err)

	clock.Advance(time.Minute)
	saved, err := s.Save(ctx)
	require.NoError(t, err)
	require.Equal(t, "URL QR Code 2024-03-01 09:31:00", saved.Name)
	require.NotEqual(t, s.Current().ID, saved.ID)
	require.Equal(t, clock.Now().UnixMilli(), saved.Timestamp)
	require.Equal(t, StateSaved, s.State())
	require.Equal(t, "QR code saved", s.Notice())

	clock.Advance(DefaultAckWindow)
	require.Equal(t, StateGenerated, s.State())

	records, err := ls.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []qr.Record{saved}, records)
}

func TestSaveKeepsExplicitName(t *testing.T) {
	s, _ := newTestSession(t, store.NewLocalStore(store.NewMemory(), nil))
	s.SetContent("hello")
	s.SetName("greeting")

	saved, err := s.Save(context.Background())
	require.NoError(t, err)
	require.Equal(t, "greeting", saved.Name)
}

func TestSaveRejectsEmptyContent(t *testing.T) {
	s, _ := newTestSession(t, store.NewLocalStore(store.NewMemory(), nil))
	_, err := s.Save(context.Background())
	require.ErrorIs(t, err, ErrEmptyContent)
}

type brokenSaver struct{}

func (brokenSaver) Save(context.Context, qr.Record) error { return errors.New("storage disabled") }

func TestSaveFailureKeepsSessionUsable(t *testing.T) {
	s, _ := newTestSession(t, brokenSaver{})
	s.SetContent("hello")
	_, err := s.Generate()
	require.NoError(t, err)

	rec, err := s.Save(context.Background())
	require.Error(t, err)
	require.Equal(t, "hello", rec.Content)
	require.Contains(t, s.Notice(), "storage disabled")
	require.Equal(t, StateGenerated, s.State())
	require.Equal(t, "hello", s.Current().Content)
	require.True(t, s.CanUndo())
}
