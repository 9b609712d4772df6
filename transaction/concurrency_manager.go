package transaction

import (
	"github.com/cockroachdb/errors"

	"waitdie/schedule"
)

// Decision is the outcome of a Wait-Die conflict.
type Decision int

const (
	// Wait blocks the requester until the lock is released.
	Wait Decision = iota + 1
	// Die rolls the requester back and restarts it from its first operation.
	Die
)

func (d Decision) String() string {
	switch d {
	case Wait:
		return "wait"
	case Die:
		return "die"
	default:
		return "Decision(?)"
	}
}

// Decide applies the Wait-Die rule: a requester older than the lock owner
// waits, any other requester dies.
func Decide(requester, owner *Transaction) Decision {
	if requester.OlderThan(owner) {
		return Wait
	}
	return Die
}

// ConcurrencyManager resolves write conflicts between a requester and the
// current owner of an object.
type ConcurrencyManager struct {
	lockTable *LockTable
	pool      *Pool
	recovery  *RecoveryManager
	rec       *recorder
}

func newConcurrencyManager(lockTable *LockTable, pool *Pool, recovery *RecoveryManager, rec *recorder) *ConcurrencyManager {
	return &ConcurrencyManager{
		lockTable: lockTable,
		pool:      pool,
		recovery:  recovery,
		rec:       rec,
	}
}

// Resolve handles a write by requester on an object locked by another
// transaction. On Wait the requester is blocked on the owner's lock and its
// queue is left alone; on Die it is rolled back.
func (cm *ConcurrencyManager) Resolve(requester *Transaction, object schedule.ObjectID) (Decision, error) {
	ownerID, err := cm.lockTable.OwnerOf(object)
	if err != nil {
		return 0, errors.Wrapf(err, "resolving write by %q", requester.id)
	}
	if ownerID == requester.id {
		return 0, errors.AssertionFailedf("no conflict: %q already owns %q", requester.id, object)
	}

	owner, ok := cm.pool.Get(ownerID)
	if !ok {
		return 0, errors.AssertionFailedf("lock owner %q of %q is not in the pool", ownerID, object)
	}

	decision := Decide(requester, owner)
	switch decision {
	case Wait:
		cm.rec.emit(object, requester.id, schedule.EventWait)
		requester.wait(Lock{Object: object, Owner: ownerID})
	case Die:
		cm.rec.emit(object, requester.id, schedule.EventRollback)
		cm.recovery.Rollback(requester)
	}

	cm.rec.logger.Trace("conflict resolved",
		"object", object, "requester", requester.id, "owner", ownerID,
		"requester_ts", requester.Timestamp(), "owner_ts", owner.Timestamp(),
		"decision", decision)
	return decision, nil
}
