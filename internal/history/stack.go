// Package history keeps a linear undo/redo history of QR record snapshots for
// a single editing session.
package history

import "github.com/qrforge/qrforge/internal/qr"

// Stack holds the live record plus undo and redo stacks, both ordered oldest
// first. The live record is never a member of either stack.
type Stack struct {
	undo    []qr.Record
	redo    []qr.Record
	current qr.Record
	limit   int
}

type Option func(*Stack)

// WithLimit caps the undo stack; when full, the oldest snapshot is evicted.
// A limit of zero or less means unbounded.
func WithLimit(n int) Option {
	return func(s *Stack) {
		s.limit = n
	}
}

func New(initial qr.Record, opts ...Option) *Stack {
	s := &Stack{current: initial}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the live record.
func (s *Stack) Current() qr.Record {
	return s.current
}

// Replace overwrites the live record without touching history.
func (s *Stack) Replace(r qr.Record) {
	s.current = r
}

// Commit records the snapshot taken before a change and discards the redo branch.
func (s *Stack) Commit(before qr.Record) {
	s.undo = append(s.undo, before)
	if s.limit > 0 && len(s.undo) > s.limit {
		s.undo = append([]qr.Record(nil), s.undo[len(s.undo)-s.limit:]...)
	}
	s.redo = nil
}

// Undo restores the most recent snapshot. The live record moves to the redo stack.
func (s *Stack) Undo() (qr.Record, bool) {
	if len(s.undo) == 0 {
		return qr.Record{}, false
	}
	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, s.current)
	s.current = prev
	return prev, true
}

// Redo reapplies the most recently undone record. The live record moves to the undo stack.
func (s *Stack) Redo() (qr.Record, bool) {
	if len(s.redo) == 0 {
		return qr.Record{}, false
	}
	next := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, s.current)
	s.current = next
	return next, true
}

func (s *Stack) CanUndo() bool { return len(s.undo) > 0 }
func (s *Stack) CanRedo() bool { return len(s.redo) > 0 }
func (s *Stack) UndoLen() int  { return len(s.undo) }
func (s *Stack) RedoLen() int  { return len(s.redo) }

// Snapshot is the serialisable form of a stack.
type Snapshot struct {
	Current qr.Record   `json:"current"`
	Undo    []qr.Record `json:"undo"`
	Redo    []qr.Record `json:"redo"`
}

func (s *Stack) Snapshot() Snapshot {
	return Snapshot{
		Current: s.current,
		Undo:    append([]qr.Record(nil), s.undo...),
		Redo:    append([]qr.Record(nil), s.redo...),
	}
}

// Restore rebuilds a stack from a snapshot, applying the same options as New.
func Restore(snap Snapshot, opts ...Option) *Stack {
	s := New(snap.Current, opts...)
	s.undo = append([]qr.Record(nil), snap.Undo...)
	s.redo = append([]qr.Record(nil), snap.Redo...)
	if s.limit > 0 && len(s.undo) > s.limit {
		s.undo = s.undo[len(s.undo)-s.limit:]
	}
	return s
}
