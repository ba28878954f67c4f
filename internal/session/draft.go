package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/qrforge/qrforge/internal/history"
	"github.com/qrforge/qrforge/internal/qr"
	"github.com/qrforge/qrforge/internal/store"
)

// DraftKey is the storage key of the persisted draft session.
const DraftKey = "draft"

// Draft is the serialisable state of a Session.
type Draft struct {
	History  history.Snapshot `json:"history"`
	Baseline qr.Record        `json:"baseline"`
	State    State            `json:"state"`
	SavedAt  int64            `json:"savedAt,omitempty"`
	Notice   string           `json:"notice,omitempty"`
}

// Draft captures the session state.
func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := Draft{
		History:  s.stack.Snapshot(),
		Baseline: s.baseline,
		State:    s.state,
		Notice:   s.notice,
	}
	if !s.savedAt.IsZero() {
		d.SavedAt = s.savedAt.UnixMilli()
	}
	return d
}

// Restore rebuilds a session from a draft.
func Restore(d Draft, saver Saver, opts ...Option) (*Session, error) {
	switch d.State {
	case StateEditing, StateGenerated:
	default:
		return nil, fmt.Errorf("session: unknown draft state %q", d.State)
	}
	if !d.History.Current.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", qr.ErrInvalidType, d.History.Current.Type)
	}

	s := newSession(saver, opts...)
	s.stack = history.Restore(d.History, history.WithLimit(s.historyLimit))
	s.baseline = d.Baseline
	s.state = d.State
	s.notice = d.Notice
	if d.SavedAt > 0 {
		s.savedAt = time.UnixMilli(d.SavedAt)
	}
	return s, nil
}

// LoadDraft restores the draft stored in kv, or starts a new session when
// none exists.
func LoadDraft(ctx context.Context, kv store.KeyValue, saver Saver, opts ...Option) (*Session, error) {
	raw, found, err := kv.Get(ctx, DraftKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	if !found {
		return New(saver, opts...), nil
	}

	var d Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	return Restore(d, saver, opts...)
}

// SaveDraft writes the session state to kv.
func (s *Session) SaveDraft(ctx context.Context, kv store.KeyValue) error {
	data, err := json.Marshal(s.Draft())
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	if err := kv.Put(ctx, DraftKey, string(data)); err != nil {
		return fmt.Errorf("failed to store draft: %w", err)
	}
	return nil
}

// DiscardDraft removes any stored draft.
func DiscardDraft(ctx context.Context, kv store.KeyValue) error {
	if err := kv.Delete(ctx, DraftKey); err != nil {
		return fmt.Errorf("failed to discard draft: %w", err)
	}
	return nil
}
