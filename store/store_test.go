package store

import (
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/escrowd/coordinator/codec"
	"github.com/escrowd/coordinator/escrowerr"
)

func newRecord(t *testing.T) *Record {
	id, err := codec.NewEscrowID()
	require.NoError(t, err)

	return &Record{
		ID:            id,
		Maker:         "maker",
		Taker:         "taker",
		Amount:        big.NewInt(100),
		SafetyDeposit: big.NewInt(10),
		Status:        Created,
	}
}

func TestInsertAndGet(t *testing.T) {
	s := New()
	rec := newRecord(t)

	require.NoError(t, s.Insert(rec))
	require.Equal(t, 1, s.Len())

	got, err := s.Get(rec.ID)
	require.NoError(t, err)
	require.Same(t, rec, got)
}

func TestInsertDuplicateRejected(t *testing.T) {
	s := New()
	rec := newRecord(t)

	require.NoError(t, s.Insert(rec))

	err := s.Insert(rec)
	require.Error(t, err)
	require.True(t, escrowerr.Is(err, escrowerr.InvalidState))
	require.Equal(t, 1, s.Len())
}

func TestGetNotFound(t *testing.T) {
	s := New()
	id, err := codec.NewEscrowID()
	require.NoError(t, err)

	_, err = s.Get(id)
	require.Error(t, err)
	require.True(t, escrowerr.Is(err, escrowerr.NotFound))
}

// TestRecordLockIndependence confirms that two distinct records can be
// locked concurrently without blocking each other, the property the
// escrow machine's per-escrow mutual exclusion depends on.
func TestRecordLockIndependence(t *testing.T) {
	a := newRecord(t)
	b := newRecord(t)

	a.Lock()
	defer a.Unlock()

	done := make(chan struct{})
	go func() {
		b.Lock()
		b.Unlock()
		close(done)
	}()

	<-done // must not deadlock against a's held lock
}

func TestStoreConcurrentInsert(t *testing.T) {
	s := New()

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			require.NoError(t, s.Insert(newRecord(t)))
		}()
	}
	wg.Wait()

	require.Equal(t, n, s.Len())
}
