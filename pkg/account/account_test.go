package account

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdjustClampsOverflowAsNoOp(t *testing.T) {
	a := New("alice")
	bal, ok := a.Adjust(1000)
	require.True(t, ok)
	require.EqualValues(t, 1000, bal)

	bal, ok = a.Adjust(-2000)
	require.False(t, ok, "would underflow below zero")
	require.EqualValues(t, 1000, bal, "balance must be unchanged on rejected adjustment")

	bal, ok = a.Adjust(math.MaxInt32)
	require.True(t, ok)

	bal, ok = a.Adjust(math.MaxInt32)
	require.False(t, ok, "would overflow uint32 range")
	require.Equal(t, bal, a.Balance())
}

func TestAdjustRunningSumMatchesClampedTotal(t *testing.T) {
	a := New("bob")
	deltas := []int32{500, -100, 2_000_000_000, 2_000_000_000, -1}
	var want int64
	for _, d := range deltas {
		next := want + int64(d)
		if next < 0 || next > int64(math.MaxUint32) {
			continue // rejected, no-op
		}
		want = next
		_, ok := a.Adjust(d)
		require.True(t, ok)
	}
	require.EqualValues(t, want, a.Balance())
}

func TestDebitRejectsInsufficientBalanceWithoutMutating(t *testing.T) {
	a := New("carol")
	a.Adjust(100)
	require.False(t, a.Debit(101))
	require.EqualValues(t, 100, a.Balance())
	require.True(t, a.Debit(100))
	require.EqualValues(t, 0, a.Balance())
}

func TestBetWinningsCoupling(t *testing.T) {
	a := New("dave")
	a.Adjust(1000)
	require.True(t, a.Debit(50))
	require.EqualValues(t, 950, a.Balance())
	a.Credit(75)
	require.EqualValues(t, 1025, a.Balance())
}

func TestAdjustConcurrentNeverPartial(t *testing.T) {
	a := New("erin")
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Adjust(10)
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1000, a.Balance())
}

func TestCredentialsCheck(t *testing.T) {
	creds := Credentials{"foo": "bar"}
	require.True(t, creds.Check("foo", "bar"))
	require.False(t, creds.Check("foo", "wrong"))
	require.False(t, creds.Check("nobody", ""))
}

func TestRegistryGetOrCreate(t *testing.T) {
	reg := NewRegistry()
	a := reg.GetOrCreate("foo")
	a.Adjust(500)

	again := reg.GetOrCreate("foo")
	require.Same(t, a, again)
	require.EqualValues(t, 500, again.Balance())

	_, ok := reg.Get("missing")
	require.False(t, ok)
}
