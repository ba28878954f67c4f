package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/qrforge/qrforge/internal/logger"
	"github.com/qrforge/qrforge/internal/qr"
)

// CollectionKey is the storage key holding the serialized record collection.
const CollectionKey = "qrCodes"

// ChangeKind identifies the mutation that triggered a Change.
type ChangeKind string

const (
	ChangeSaved   ChangeKind = "saved"
	ChangeDeleted ChangeKind = "deleted"
)

// Change is broadcast to subscribers after every save or delete.
type Change struct {
	Kind ChangeKind
	ID   string
	// Removed is false for a delete that matched nothing.
	Removed bool
}

var errUnchanged = errors.New("store: unchanged")

// LocalStore keeps an ordered collection of records under CollectionKey and
// notifies subscribers when it changes. Each mutation is a read-modify-write
// of the whole collection.
type LocalStore struct {
	kv  KeyValue
	log logger.Logger

	mu          sync.RWMutex
	nextSubID   int
	subscribers map[int]func(Change)
}

// NewLocalStore wraps kv. A nil log discards diagnostics.
func NewLocalStore(kv KeyValue, log logger.Logger) *LocalStore {
	if log == nil {
		log = logger.NewNop()
	}
	return &LocalStore{
		kv:          kv,
		log:         log,
		subscribers: make(map[int]func(Change)),
	}
}

// Save appends r to the collection. A record whose id is already stored is
// rejected with ErrDuplicateID and the collection is left untouched. A corrupt
// collection is replaced by one holding only r.
func (s *LocalStore) Save(ctx context.Context, r qr.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}

	err := s.kv.Update(ctx, CollectionKey, func(current string, found bool) (string, error) {
		records := s.decodeOrEmpty(current, found)
		for _, existing := range records {
			if existing.ID == r.ID {
				return "", fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)
			}
		}
		return encodeCollection(append(records, r))
	})
	if err != nil {
		s.log.Error("failed to save qr code",
			logger.String("id", r.ID),
			logger.Error(err))
		return err
	}

	s.notify(Change{Kind: ChangeSaved, ID: r.ID})
	return nil
}

// List returns every stored record in storage order. A corrupt collection is
// logged and reported as empty.
func (s *LocalStore) List(ctx context.Context) ([]qr.Record, error) {
	raw, found, err := s.kv.Get(ctx, CollectionKey)
	if err != nil {
		s.log.Error("failed to load qr codes", logger.Error(err))
		return nil, fmt.Errorf("failed to load qr codes: %w", err)
	}

	return s.decodeOrEmpty(raw, found), nil
}

// Get returns the record with the given id, or ErrNotFound.
func (s *LocalStore) Get(ctx context.Context, id string) (qr.Record, error) {
	records, err := s.List(ctx)
	if err != nil {
		return qr.Record{}, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, nil
		}
	}
	return qr.Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Delete removes the record with the given id. It returns false without error
// when nothing matches.
func (s *LocalStore) Delete(ctx context.Context, id string) (bool, error) {
	removed := false

	err := s.kv.Update(ctx, CollectionKey, func(current string, found bool) (string, error) {
		removed = false
		records := s.decodeOrEmpty(current, found)
		kept := records[:0]
		for _, r := range records {
			if !removed && r.ID == id {
				removed = true
				continue
			}
			kept = append(kept, r)
		}
		if !removed {
			return "", errUnchanged
		}
		return encodeCollection(kept)
	})
	if err != nil && !errors.Is(err, errUnchanged) {
		s.log.Error("failed to delete qr code",
			logger.String("id", id),
			logger.Error(err))
		return false, err
	}

	s.notify(Change{Kind: ChangeDeleted, ID: id, Removed: removed})
	return removed, nil
}

// Subscribe registers fn to be called after every save or delete. The
// returned function removes the subscription.
func (s *LocalStore) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}

func (s *LocalStore) notify(c Change) {
	s.mu.RLock()
	fns := make([]func(Change), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}

// decodeOrEmpty reads a corrupt collection as empty so the next write
// replaces it.
func (s *LocalStore) decodeOrEmpty(raw string, found bool) []qr.Record {
	records, err := decodeCollection(raw, found)
	if err != nil {
		s.log.Warn("ignoring corrupt qr code collection", logger.Error(err))
		return []qr.Record{}
	}
	return records
}

func decodeCollection(raw string, found bool) ([]qr.Record, error) {
	if !found || raw == "" {
		return []qr.Record{}, nil
	}
	var records []qr.Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("failed to decode qr code collection: %w", err)
	}
	if records == nil {
		records = []qr.Record{}
	}
	return records, nil
}

func encodeCollection(records []qr.Record) (string, error) {
	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("failed to encode qr code collection: %w", err)
	}
	return string(data), nil
}
