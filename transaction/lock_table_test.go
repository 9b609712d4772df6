package transaction

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"waitdie/schedule"
)

func TestNewLockTable(t *testing.T) {
	lt := NewLockTable()
	require.NotNil(t, lt)
	require.Zero(t, lt.Len())
	require.Empty(t, lt.Locks())
	require.False(t, lt.Exists("x"))
}

func TestLockTableAcquire(t *testing.T) {
	lt := NewLockTable()
	require.NoError(t, lt.Acquire("x", "T1"))

	require.True(t, lt.Exists("x"))
	owner, err := lt.OwnerOf("x")
	require.NoError(t, err)
	require.Equal(t, schedule.TxID("T1"), owner)
	require.True(t, lt.Holds(Lock{Object: "x", Owner: "T1"}))
	require.False(t, lt.Holds(Lock{Object: "x", Owner: "T2"}))

	t.Run("conflict", func(t *testing.T) {
		err := lt.Acquire("x", "T2")
		require.True(t, errors.Is(err, ErrLockConflict))
		require.Contains(t, err.Error(), `"T1"`)

		// A transaction may not lock an object twice either.
		require.True(t, errors.Is(lt.Acquire("x", "T1"), ErrLockConflict))

		owner, err := lt.OwnerOf("x")
		require.NoError(t, err)
		require.Equal(t, schedule.TxID("T1"), owner)
	})
}

func TestLockTableOwnerOfUnlocked(t *testing.T) {
	_, err := NewLockTable().OwnerOf("x")
	require.Error(t, err)
	require.True(t, errors.HasAssertionFailure(err))
}

func TestLockTableReleaseAll(t *testing.T) {
	lt := NewLockTable()
	require.NoError(t, lt.Acquire("c", "T1"))
	require.NoError(t, lt.Acquire("a", "T2"))
	require.NoError(t, lt.Acquire("b", "T1"))
	require.NoError(t, lt.Acquire("d", "T1"))

	require.Equal(t, []schedule.ObjectID{"c", "b", "d"}, lt.HeldBy("T1"))
	require.Equal(t, []Lock{
		{Object: "a", Owner: "T2"},
		{Object: "b", Owner: "T1"},
		{Object: "c", Owner: "T1"},
		{Object: "d", Owner: "T1"},
	}, lt.Locks())

	released := lt.ReleaseAll("T1")
	require.Equal(t, []schedule.ObjectID{"c", "b", "d"}, released)
	require.Equal(t, 1, lt.Len())
	require.False(t, lt.Exists("c"))
	require.True(t, lt.Exists("a"))

	// Idempotent.
	require.Empty(t, lt.ReleaseAll("T1"))
	require.Empty(t, lt.ReleaseAll("T9"))

	// Released objects can be taken again and keep a fresh order.
	require.NoError(t, lt.Acquire("d", "T1"))
	require.NoError(t, lt.Acquire("c", "T1"))
	require.Equal(t, []schedule.ObjectID{"d", "c"}, lt.ReleaseAll("T1"))
}

func TestLockTableHeldByIsCopy(t *testing.T) {
	lt := NewLockTable()
	require.NoError(t, lt.Acquire("x", "T1"))

	held := lt.HeldBy("T1")
	held[0] = "y"
	require.Equal(t, []schedule.ObjectID{"x"}, lt.HeldBy("T1"))
}
