// Package reservation guards UTXOs that coin selection has chosen for an
// in-flight funding transaction so a concurrent funding flow cannot select
// the same outpoint twice. Grounded on the teacher's sweep package, which
// holds inputs under a single lock between selection and broadcast
// (sweep/txgenerator.go), generalized here into a standalone store since
// the coordinator runs many concurrent funding flows rather than one
// sweeper.
package reservation

import (
	"sync"

	"github.com/btcsuite/btcd/wire"
)

// Store tracks outpoints reserved by in-flight coin selections. It is safe
// for concurrent use.
type Store struct {
	mu        sync.Mutex
	reserved  map[wire.OutPoint]struct{}
}

// NewStore returns an empty reservation store.
func NewStore() *Store {
	return &Store{
		reserved: make(map[wire.OutPoint]struct{}),
	}
}

// Reserve attempts to reserve every outpoint in ops atomically: either all
// are reserved, or none are (on conflict the store is left unchanged).
// Returns false if any outpoint is already reserved.
func (s *Store) Reserve(ops []wire.OutPoint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, op := range ops {
		if _, taken := s.reserved[op]; taken {
			return false
		}
	}
	for _, op := range ops {
		s.reserved[op] = struct{}{}
	}
	return true
}

// Release frees previously reserved outpoints. Releasing an outpoint that
// isn't reserved is a no-op.
func (s *Store) Release(ops []wire.OutPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, op := range ops {
		delete(s.reserved, op)
	}
}

// IsReserved reports whether op is currently held.
func (s *Store) IsReserved(op wire.OutPoint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.reserved[op]
	return ok
}

// Filter returns the subset of candidates that are not currently reserved,
// preserving order. Coin selection should filter its UTXO universe through
// this before running branch-and-bound, so reserved outputs are never
// offered as candidates.
func (s *Store) Filter(candidates []wire.OutPoint) []wire.OutPoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]wire.OutPoint, 0, len(candidates))
	for _, op := range candidates {
		if _, taken := s.reserved[op]; !taken {
			out = append(out, op)
		}
	}
	return out
}

// Clear empties the store. Called on wallet resync, when any previously
// reserved outpoint may no longer reflect the wallet's UTXO set.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reserved = make(map[wire.OutPoint]struct{})
}

// Len reports the number of currently reserved outpoints.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.reserved)
}
