// Package usecase implements the operations exposed by the CLI and the MCP
// server on top of the record store, formatter and renderer.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qrforge/qrforge/internal/qr"
	"github.com/qrforge/qrforge/internal/render"
	"github.com/qrforge/qrforge/internal/session"
	"github.com/qrforge/qrforge/internal/store"
)

// ErrAmbiguousID is returned when an id prefix matches more than one record.
var ErrAmbiguousID = errors.New("usecase: ambiguous id prefix")

// Option customises Codes.
type Option func(*Codes)

func WithClock(now func() time.Time) Option {
	return func(c *Codes) { c.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(c *Codes) { c.newID = newID }
}

// WithDefaultStyle sets the style applied to fields a caller leaves unset.
func WithDefaultStyle(style qr.Style) Option {
	return func(c *Codes) { c.defaults = style }
}

// Codes groups the record operations.
type Codes struct {
	store     *store.LocalStore
	formatter *qr.Formatter
	renderer  *render.Renderer
	defaults  qr.Style
	now       func() time.Time
	newID     func() string
}

func NewCodes(s *store.LocalStore, f *qr.Formatter, opts ...Option) *Codes {
	if f == nil {
		f = qr.NewFormatter(nil)
	}
	c := &Codes{
		store:     s,
		formatter: f,
		renderer:  render.New(f),
		defaults:  qr.DefaultStyle(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Defaults returns the style applied to unset fields.
func (c *Codes) Defaults() qr.Style {
	return c.defaults
}

// Format formats content without touching storage.
func (c *Codes) Format(t qr.Type, content string) qr.Result {
	return c.formatter.Format(t, content)
}

// CreateInput describes a record to save.
type CreateInput struct {
	Type    qr.Type
	Content string
	Name    string
	Style   qr.Style
}

// Create builds a record with a new id, the current time, default styling
// for unset fields and an automatic name when none is given, then saves it.
func (c *Codes) Create(ctx context.Context, in CreateInput) (qr.Record, error) {
	if !in.Type.Valid() {
		return qr.Record{}, fmt.Errorf("%w: %q", qr.ErrInvalidType, in.Type)
	}
	if qr.BlankContent(in.Type, in.Content) {
		return qr.Record{}, session.ErrEmptyContent
	}
	if err := qr.ValidateContent(in.Type, in.Content); err != nil {
		return qr.Record{}, err
	}

	now := c.now()
	record := qr.NewRecord(c.newID(), in.Type, in.Content, now)
	record.SetStyle(in.Style.WithDefaults(c.defaults))
	record.Name = strings.TrimSpace(in.Name)
	if record.Name == "" {
		record.Name = qr.AutoName(in.Type, now)
	}

	if err := c.store.Save(ctx, record); err != nil {
		return qr.Record{}, err
	}
	return record, nil
}

// ListEntry is a stored record with its formatted payload.
type ListEntry struct {
	Record  qr.Record
	Payload string
}

// List returns stored records filtered and ordered by q.
func (c *Codes) List(ctx context.Context, q store.Query) ([]ListEntry, error) {
	records, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}

	matched := q.Apply(records)
	entries := make([]ListEntry, 0, len(matched))
	for _, r := range matched {
		entries = append(entries, ListEntry{
			Record:  r,
			Payload: c.formatter.FormatRecord(r).Payload,
		})
	}
	return entries, nil
}

// Resolve finds a record by full id or unique id prefix.
func (c *Codes) Resolve(ctx context.Context, ref string) (qr.Record, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return qr.Record{}, fmt.Errorf("%w: empty id", store.ErrNotFound)
	}

	records, err := c.store.List(ctx)
	if err != nil {
		return qr.Record{}, err
	}

	var matches []qr.Record
	for _, r := range records {
		if r.ID == ref {
			return r, nil
		}
		if strings.HasPrefix(r.ID, ref) {
			matches = append(matches, r)
		}
	}

	switch len(matches) {
	case 0:
		return qr.Record{}, fmt.Errorf("%w: %s", store.ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return qr.Record{}, fmt.Errorf("%w: %s matches %d records", ErrAmbiguousID, ref, len(matches))
	}
}

// ShowResult is a record with its payload. Degraded holds the decode error
// when the content could not be parsed and the payload is the raw content.
type ShowResult struct {
	Record   qr.Record
	Payload  string
	Degraded error
}

func (c *Codes) Show(ctx context.Context, ref string) (*ShowResult, error) {
	r, err := c.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	res := c.formatter.FormatRecord(r)
	return &ShowResult{Record: r, Payload: res.Payload, Degraded: res.Err}, nil
}

// Delete removes the record identified by ref and returns it.
func (c *Codes) Delete(ctx context.Context, ref string) (qr.Record, error) {
	r, err := c.Resolve(ctx, ref)
	if err != nil {
		return qr.Record{}, err
	}
	if _, err := c.store.Delete(ctx, r.ID); err != nil {
		return qr.Record{}, err
	}
	return r, nil
}

// DeleteByID removes a record by exact id. Unknown ids are not an error.
func (c *Codes) DeleteByID(ctx context.Context, id string) (bool, error) {
	return c.store.Delete(ctx, id)
}
