// Package session drives a single QR code editing session: field edits,
// explicit generate steps recorded in an undo/redo history, and saving to a
// record store.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/qrforge/qrforge/internal/history"
	"github.com/qrforge/qrforge/internal/logger"
	"github.com/qrforge/qrforge/internal/qr"
)

// ErrEmptyContent is returned by Generate and Save when there is nothing to encode.
var ErrEmptyContent = errors.New("session: content is empty")

// DefaultAckWindow is how long State reports StateSaved after a save.
const DefaultAckWindow = 3 * time.Second

type State string

const (
	StateEditing   State = "editing"
	StateGenerated State = "generated"
	StateSaved     State = "saved"
)

// Saver persists a finished record.
type Saver interface {
	Save(ctx context.Context, r qr.Record) error
}

type Option func(*Session)

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Session) { s.newID = newID }
}

func WithHistoryLimit(n int) Option {
	return func(s *Session) { s.historyLimit = n }
}

func WithLogger(log logger.Logger) Option {
	return func(s *Session) { s.log = log }
}

func WithAckWindow(d time.Duration) Option {
	return func(s *Session) { s.ackWindow = d }
}

// WithDefaultStyle sets the style of the initial record.
func WithDefaultStyle(style qr.Style) Option {
	return func(s *Session) { s.defaultStyle = style }
}

// Session is safe for concurrent use.
type Session struct {
	mu sync.Mutex

	saver        Saver
	log          logger.Logger
	formatter    *qr.Formatter
	now          func() time.Time
	newID        func() string
	ackWindow    time.Duration
	historyLimit int
	defaultStyle qr.Style

	stack *history.Stack
	// baseline is the record as of the last generate, undo or redo; it is
	// the snapshot committed by the next generate.
	baseline qr.Record
	state    State
	savedAt  time.Time
	notice   string
}

// New starts an empty URL session. saver may be nil, in which case Save
// only builds the record.
func New(saver Saver, opts ...Option) *Session {
	s := newSession(saver, opts...)
	initial := qr.NewRecord(s.newID(), qr.TypeURL, "", s.now())
	initial.SetStyle(s.defaultStyle)
	s.stack = history.New(initial, history.WithLimit(s.historyLimit))
	s.baseline = initial
	return s
}

func newSession(saver Saver, opts ...Option) *Session {
	s := &Session{
		saver:        saver,
		now:          time.Now,
		newID:        uuid.NewString,
		ackWindow:    DefaultAckWindow,
		defaultStyle: qr.DefaultStyle(),
		state:        StateEditing,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	s.formatter = qr.NewFormatter(s.log)
	return s
}

// Current returns the record being edited.
func (s *Session) Current() qr.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stack.Current()
}

// Payload formats the current record.
func (s *Session) Payload() qr.Result {
	return s.formatter.FormatRecord(s.Current())
}

// State reports the session state. StateSaved is transient and reverts to
// the underlying state once the acknowledgement window has passed.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.savedAt.IsZero() && s.now().Sub(s.savedAt) < s.ackWindow {
		return StateSaved
	}
	return s.state
}

// Notice returns the last user-facing message, such as a storage failure.
func (s *Session) Notice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notice
}

func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stack.CanUndo()
}

func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stack.CanRedo()
}

// SetType switches the record type and resets content to the empty value
// for that type.
func (s *Session) SetType(t qr.Type) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", qr.ErrInvalidType, t)
	}
	s.edit(func(r *qr.Record) {
		r.Type = t
		r.Content = qr.EmptyContent(t)
	})
	return nil
}

// SetContent replaces the raw content string.
func (s *Session) SetContent(content string) {
	s.edit(func(r *qr.Record) { r.Content = content })
}

// SetStructured replaces type and content with the serialised form of c.
func (s *Session) SetStructured(c qr.Content) error {
	raw, err := qr.EncodeContent(c)
	if err != nil {
		return err
	}
	s.edit(func(r *qr.Record) {
		r.Type = c.Type()
		r.Content = raw
	})
	return nil
}

func (s *Session) SetName(name string) {
	s.edit(func(r *qr.Record) { r.Name = name })
}

// SetStyle replaces the visual settings; zero fields keep their current value.
func (s *Session) SetStyle(style qr.Style) error {
	s.mu.Lock()
	merged := style.WithDefaults(s.stack.Current().Style())
	s.mu.Unlock()

	if err := merged.Validate(); err != nil {
		return err
	}
	s.edit(func(r *qr.Record) { r.SetStyle(merged) })
	return nil
}

func (s *Session) edit(fn func(*qr.Record)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.stack.Current()
	fn(&r)
	s.stack.Replace(r)
	s.state = StateEditing
	s.savedAt = time.Time{}
	s.notice = ""
}

// Generate commits the previous generated state to the undo history and
// marks the current record as generated. It fails with ErrEmptyContent and
// leaves the session untouched when there is nothing to encode.
func (s *Session) Generate() (qr.Result, error) {
	s.mu.Lock()
	current := s.stack.Current()
	if isEmpty(current) {
		s.mu.Unlock()
		return qr.Result{}, ErrEmptyContent
	}
	if err := qr.ValidateContent(current.Type, current.Content); err != nil {
		s.mu.Unlock()
		return qr.Result{}, err
	}

	s.stack.Commit(s.baseline)
	s.baseline = current
	s.state = StateGenerated
	s.savedAt = time.Time{}
	s.notice = ""
	s.mu.Unlock()

	return s.formatter.FormatRecord(current), nil
}

// Undo restores the previous generated state. It returns false when there is
// no history.
func (s *Session) Undo() (qr.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.stack.Undo()
	if !ok {
		return qr.Record{}, false
	}
	s.afterHistoryMove(r)
	return r, true
}

// Redo reapplies the most recently undone state.
func (s *Session) Redo() (qr.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.stack.Redo()
	if !ok {
		return qr.Record{}, false
	}
	s.afterHistoryMove(r)
	return r, true
}

func (s *Session) afterHistoryMove(r qr.Record) {
	s.baseline = r
	s.savedAt = time.Time{}
	s.notice = ""
	if isEmpty(r) {
		s.state = StateEditing
	} else {
		s.state = StateGenerated
	}
}

// Save builds a fresh record from the current fields, with a new id, the
// current time and an automatic name when none is set, and hands it to the
// saver. A storage failure is returned and kept as the session notice; the
// session itself stays usable.
func (s *Session) Save(ctx context.Context) (qr.Record, error) {
	s.mu.Lock()
	current := s.stack.Current()
	if isEmpty(current) {
		s.mu.Unlock()
		return qr.Record{}, ErrEmptyContent
	}
	if err := qr.ValidateContent(current.Type, current.Content); err != nil {
		s.mu.Unlock()
		return qr.Record{}, err
	}

	now := s.now()
	record := current
	record.ID = s.newID()
	record.Timestamp = now.UnixMilli()
	if strings.TrimSpace(record.Name) == "" {
		record.Name = qr.AutoName(record.Type, now)
	}
	s.mu.Unlock()

	var err error
	if s.saver != nil {
		err = s.saver.Save(ctx, record)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.notice = fmt.Sprintf("Failed to save QR code: %v", err)
		s.log.Warn("save failed; record kept in session",
			logger.String("id", record.ID),
			logger.Error(err))
		return record, err
	}
	s.savedAt = now
	s.notice = "QR code saved"
	return record, nil
}

func isEmpty(r qr.Record) bool {
	return qr.BlankContent(r.Type, r.Content)
}
