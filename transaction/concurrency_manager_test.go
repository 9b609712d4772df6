package transaction

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"waitdie/log"
	"waitdie/schedule"
)

type conflictFixture struct {
	lockTable *LockTable
	pool      *Pool
	log       *log.Manager
	cm        *ConcurrencyManager
}

func newConflictFixture(t *testing.T, ids ...schedule.TxID) *conflictFixture {
	t.Helper()

	f := &conflictFixture{
		lockTable: NewLockTable(),
		pool:      NewPool(Ascending),
		log:       log.NewManager(0),
	}
	rec := &recorder{log: f.log, logger: hclog.NewNullLogger()}
	f.cm = newConcurrencyManager(f.lockTable, f.pool, newRecoveryManager(f.lockTable, rec), rec)

	for i, id := range ids {
		require.NoError(t, f.pool.Add(newTransaction(id, uint64(i))))
	}
	return f
}

func (f *conflictFixture) tx(t *testing.T, id schedule.TxID) *Transaction {
	t.Helper()
	tx, ok := f.pool.Get(id)
	require.True(t, ok, "transaction %s", id)
	return tx
}

func TestDecide(t *testing.T) {
	older := newTransaction("old", 1)
	younger := newTransaction("young", 2)
	twin := newTransaction("twin", 1)
	require.Equal(t, uint64(1), older.Timestamp())
	require.Equal(t, uint64(2), younger.Timestamp())

	require.Equal(t, Wait, Decide(older, younger))
	require.Equal(t, Die, Decide(younger, older))
	require.Equal(t, Die, Decide(older, twin))
}

func TestResolveWait(t *testing.T) {
	f := newConflictFixture(t, "T1", "T2")
	t1, t2 := f.tx(t, "T1"), f.tx(t, "T2")

	t1.admit(schedule.Write("x", "T1"))
	require.NoError(t, f.lockTable.Acquire("x", "T2"))

	decision, err := f.cm.Resolve(t1, "x")
	require.NoError(t, err)
	require.Equal(t, Wait, decision)

	require.Equal(t, []schedule.Event{{Object: "x", Tx: "T1", Kind: schedule.EventWait}}, f.log.Records())
	require.True(t, t1.Blocked())
	require.Equal(t, []Lock{{Object: "x", Owner: "T2"}}, t1.waits())
	require.Equal(t, []schedule.Operation{schedule.Write("x", "T1")}, t1.queue)
	require.False(t, t2.Blocked())

	// Once T2 lets go of x the waiting set drains and T1 is runnable again.
	f.lockTable.ReleaseAll("T2")
	require.True(t, t1.syncWaits(f.lockTable))
	require.False(t, t1.Blocked())
	require.Empty(t, t1.waits())
}

func TestResolveDie(t *testing.T) {
	f := newConflictFixture(t, "T1", "T2")
	t2 := f.tx(t, "T2")

	history := []schedule.Operation{
		schedule.Write("a", "T2"),
		schedule.Write("b", "T2"),
		schedule.Write("x", "T2"),
		schedule.Commit("", "T2"),
	}
	for _, op := range history {
		t2.admit(op)
	}
	// T2 has already written a and b and is now at x.
	require.NoError(t, t2.pop())
	require.NoError(t, t2.pop())
	require.NoError(t, f.lockTable.Acquire("a", "T2"))
	require.NoError(t, f.lockTable.Acquire("b", "T2"))
	require.NoError(t, f.lockTable.Acquire("x", "T1"))
	t2.wait(Lock{Object: "z", Owner: "T1"})

	decision, err := f.cm.Resolve(t2, "x")
	require.NoError(t, err)
	require.Equal(t, Die, decision)

	require.Equal(t, []schedule.Event{
		{Object: "x", Tx: "T2", Kind: schedule.EventRollback},
		{Object: "a", Tx: "T2", Kind: schedule.EventUnlock},
		{Object: "b", Tx: "T2", Kind: schedule.EventUnlock},
	}, f.log.Records())
	require.Equal(t, history, t2.queue)
	require.False(t, t2.Blocked())
	require.Empty(t, t2.waits())
	require.Empty(t, f.lockTable.HeldBy("T2"))
	require.True(t, f.lockTable.Holds(Lock{Object: "x", Owner: "T1"}))
}

func TestResolveWithoutConflict(t *testing.T) {
	f := newConflictFixture(t, "T1", "T2")
	t1 := f.tx(t, "T1")

	t.Run("unlocked object", func(t *testing.T) {
		_, err := f.cm.Resolve(t1, "x")
		require.True(t, errors.HasAssertionFailure(err))
	})

	t.Run("own lock", func(t *testing.T) {
		require.NoError(t, f.lockTable.Acquire("y", "T1"))
		_, err := f.cm.Resolve(t1, "y")
		require.True(t, errors.HasAssertionFailure(err))
	})

	t.Run("owner outside the pool", func(t *testing.T) {
		require.NoError(t, f.lockTable.Acquire("z", "ghost"))
		_, err := f.cm.Resolve(t1, "z")
		require.True(t, errors.HasAssertionFailure(err))
	})

	require.Empty(t, f.log.Records())
}

func TestTransactionPopEmpty(t *testing.T) {
	tx := newTransaction("T1", 0)
	err := tx.pop()
	require.True(t, errors.HasAssertionFailure(err))
}
