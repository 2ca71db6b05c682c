package reservation

import (
	"sync"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func op(i uint32) wire.OutPoint {
	return wire.OutPoint{Hash: chainhash.Hash{}, Index: i}
}

func TestReserveThenConflict(t *testing.T) {
	s := NewStore()

	ok := s.Reserve([]wire.OutPoint{op(0), op(1)})
	require.True(t, ok)
	require.Equal(t, 2, s.Len())

	// Overlapping reservation must fail and leave the store unchanged.
	ok = s.Reserve([]wire.OutPoint{op(1), op(2)})
	require.False(t, ok)
	require.Equal(t, 2, s.Len())
	require.False(t, s.IsReserved(op(2)))
}

func TestReleaseThenReReserve(t *testing.T) {
	s := NewStore()
	require.True(t, s.Reserve([]wire.OutPoint{op(0)}))

	s.Release([]wire.OutPoint{op(0)})
	require.False(t, s.IsReserved(op(0)))

	require.True(t, s.Reserve([]wire.OutPoint{op(0)}))
}

func TestFilterExcludesReserved(t *testing.T) {
	s := NewStore()
	require.True(t, s.Reserve([]wire.OutPoint{op(1)}))

	candidates := []wire.OutPoint{op(0), op(1), op(2)}
	filtered := s.Filter(candidates)
	require.Equal(t, []wire.OutPoint{op(0), op(2)}, filtered)
}

func TestClearRemovesAll(t *testing.T) {
	s := NewStore()
	require.True(t, s.Reserve([]wire.OutPoint{op(0), op(1)}))

	s.Clear()
	require.Equal(t, 0, s.Len())
	require.True(t, s.Reserve([]wire.OutPoint{op(0)}))
}

// Concurrent reservations of the same outpoint must never both succeed:
// exactly one of the competing goroutines wins it.
func TestConcurrentReserveNoDoubleSpend(t *testing.T) {
	s := NewStore()
	const n = 50

	var wg sync.WaitGroup
	successes := make([]bool, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Every goroutine competes for the same single outpoint.
			successes[i] = s.Reserve([]wire.OutPoint{op(0)})
		}(i)
	}
	wg.Wait()

	count := 0
	for _, ok := range successes {
		if ok {
			count++
		}
	}
	require.Equal(t, 1, count)
}
