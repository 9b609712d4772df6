package transaction

import (
	"waitdie/schedule"
)

// RecoveryManager ends transactions: a commit releases the transaction's
// locks, a rollback additionally rebuilds its queue from its history.
type RecoveryManager struct {
	lockTable *LockTable
	rec       *recorder
}

func newRecoveryManager(lockTable *LockTable, rec *recorder) *RecoveryManager {
	return &RecoveryManager{
		lockTable: lockTable,
		rec:       rec,
	}
}

// Commit records op and releases every lock held by tx. The caller pops op.
func (m *RecoveryManager) Commit(tx *Transaction, op schedule.Operation) {
	m.rec.emitOp(op)
	m.release(tx)
}

// Rollback aborts tx: its waiting set is cleared, its queue is replaced by
// every operation admitted for it so far, in admission order, and its locks
// are released.
func (m *RecoveryManager) Rollback(tx *Transaction) {
	tx.restart()
	m.release(tx)
}

func (m *RecoveryManager) release(tx *Transaction) {
	for _, object := range m.lockTable.ReleaseAll(tx.id) {
		m.rec.emit(object, tx.id, schedule.EventUnlock)
	}
}
