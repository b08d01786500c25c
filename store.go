package sdp

import (
	"context"
	"fmt"
	"iter"
	"sort"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// RecordHandle is a ServiceRecordHandle.
type RecordHandle uint32

func (h RecordHandle) String() string { return fmt.Sprintf("0x%08X", uint32(h)) }

// Store holds the registered service records.
//
// Records are added while the server is being set up; once the first channel
// is opened the store is sealed and becomes read-only, so lookups need no
// locking.
type Store struct {
	handles    []RecordHandle // ascending
	records    map[RecordHandle]ServiceRecord
	nextHandle RecordHandle
	sealed     bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		records:    map[RecordHandle]ServiceRecord{},
		nextHandle: firstRecordHandle,
	}
}

// Register stores r under a freshly assigned handle and returns it.
//
// The record must carry a ServiceClassIDList and no duplicate attribute IDs.
// Any ServiceRecordHandle attribute in r is replaced with the assigned one.
func (s *Store) Register(ctx context.Context, r ServiceRecord) (_ RecordHandle, _err error) {
	logger.Tracef(ctx, "Register")
	defer func() { logger.Tracef(ctx, "/Register: %v", _err) }()
	if s.sealed {
		return 0, ErrRegistrationClosed
	}
	if err := r.checkAttributes(); err != nil {
		return 0, err
	}
	h := s.nextHandle
	s.nextHandle++
	s.put(h, r)
	logger.Debugf(ctx, "registered service record %s classes %v", h, r.ServiceClassIDs())
	return h, nil
}

// registerAt stores r under a reserved handle.
func (s *Store) registerAt(h RecordHandle, r ServiceRecord) error {
	if s.sealed {
		return ErrRegistrationClosed
	}
	if _, ok := s.records[h]; ok {
		return fmt.Errorf("handle %s already in use", h)
	}
	if err := r.checkAttributes(); err != nil {
		return err
	}
	s.put(h, r)
	return nil
}

func (s *Store) put(h RecordHandle, r ServiceRecord) {
	s.records[h] = r.withHandle(h)
	i := sort.Search(len(s.handles), func(i int) bool { return s.handles[i] >= h })
	s.handles = append(s.handles, 0)
	copy(s.handles[i+1:], s.handles[i:])
	s.handles[i] = h
}

// Lookup returns a copy of the record registered under h.
func (s *Store) Lookup(h RecordHandle) (ServiceRecord, error) {
	r, ok := s.records[h]
	if !ok {
		return ServiceRecord{}, fmt.Errorf("record %s: %w", h, ErrNotFound)
	}
	return r.clone(), nil
}

// lookup is Lookup without the copy, for read-only use by the server.
func (s *Store) lookup(h RecordHandle) (ServiceRecord, bool) {
	r, ok := s.records[h]
	return r, ok
}

// All iterates over the records in ascending handle order. Each call starts
// from the beginning.
func (s *Store) All() iter.Seq2[RecordHandle, ServiceRecord] {
	return func(yield func(RecordHandle, ServiceRecord) bool) {
		for _, h := range s.handles {
			if !yield(h, s.records[h].clone()) {
				return
			}
		}
	}
}

// Len returns the number of registered records.
func (s *Store) Len() int { return len(s.handles) }

// Seal makes the store read-only.
func (s *Store) Seal() { s.sealed = true }

// Sealed reports whether Seal has been called.
func (s *Store) Sealed() bool { return s.sealed }
