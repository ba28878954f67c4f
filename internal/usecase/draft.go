package usecase

import (
	"context"

	"github.com/qrforge/qrforge/internal/session"
	"github.com/qrforge/qrforge/internal/store"
)

// Drafts keeps a single editing session in the key-value store between
// process runs.
type Drafts struct {
	kv    store.KeyValue
	saver session.Saver
	opts  []session.Option
}

func NewDrafts(kv store.KeyValue, saver session.Saver, opts ...session.Option) *Drafts {
	return &Drafts{kv: kv, saver: saver, opts: opts}
}

// Load returns the stored draft or a fresh session.
func (d *Drafts) Load(ctx context.Context) (*session.Session, error) {
	return session.LoadDraft(ctx, d.kv, d.saver, d.opts...)
}

// Update loads the draft, applies fn and stores the result. The draft is
// stored even when fn fails, so a failed save keeps its notice.
func (d *Drafts) Update(ctx context.Context, fn func(*session.Session) error) (*session.Session, error) {
	s, err := d.Load(ctx)
	if err != nil {
		return nil, err
	}
	fnErr := fn(s)
	if err := s.SaveDraft(ctx, d.kv); err != nil {
		return s, err
	}
	return s, fnErr
}

// Reset discards the stored draft.
func (d *Drafts) Reset(ctx context.Context) error {
	return session.DiscardDraft(ctx, d.kv)
}
