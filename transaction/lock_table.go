package transaction

import (
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"waitdie/schedule"
)

// ErrLockConflict is returned when acquiring a lock on an object that is
// already locked.
var ErrLockConflict = errors.New("lock conflict")

// Lock is an exclusive claim by one transaction on one object.
type Lock struct {
	Object schedule.ObjectID
	Owner  schedule.TxID
}

// LockTable maps each locked object to its single owner. It is not safe for
// concurrent use; a scheduler run owns its table exclusively.
type LockTable struct {
	locks map[schedule.ObjectID]schedule.TxID
	held  map[schedule.TxID][]schedule.ObjectID // in acquisition order
}

func NewLockTable() *LockTable {
	return &LockTable{
		locks: make(map[schedule.ObjectID]schedule.TxID),
		held:  make(map[schedule.TxID][]schedule.ObjectID),
	}
}

// Exists reports whether object is locked.
func (lt *LockTable) Exists(object schedule.ObjectID) bool {
	_, ok := lt.locks[object]
	return ok
}

// OwnerOf returns the transaction holding the lock on object. Asking for the
// owner of an unlocked object is a programming error.
func (lt *LockTable) OwnerOf(object schedule.ObjectID) (schedule.TxID, error) {
	owner, ok := lt.locks[object]
	if !ok {
		return "", errors.AssertionFailedf("no lock held on object %q", object)
	}
	return owner, nil
}

// Holds reports whether exactly the given lock is in the table.
func (lt *LockTable) Holds(l Lock) bool {
	owner, ok := lt.locks[l.Object]
	return ok && owner == l.Owner
}

// Acquire locks object for tx.
func (lt *LockTable) Acquire(object schedule.ObjectID, tx schedule.TxID) error {
	if owner, ok := lt.locks[object]; ok {
		return errors.Wrapf(ErrLockConflict, "object %q is held by %q, requested by %q", object, owner, tx)
	}

	lt.locks[object] = tx
	lt.held[tx] = append(lt.held[tx], object)
	return nil
}

// ReleaseAll removes every lock owned by tx and returns the released objects
// in the order they were acquired. Releasing a transaction holding no locks
// returns nil.
func (lt *LockTable) ReleaseAll(tx schedule.TxID) []schedule.ObjectID {
	objects, ok := lt.held[tx]
	if !ok {
		return nil
	}

	for _, object := range objects {
		delete(lt.locks, object)
	}
	delete(lt.held, tx)
	return objects
}

// HeldBy returns the objects locked by tx in acquisition order.
func (lt *LockTable) HeldBy(tx schedule.TxID) []schedule.ObjectID {
	return slices.Clone(lt.held[tx])
}

func (lt *LockTable) Len() int {
	return len(lt.locks)
}

// Locks returns a copy of the table sorted by object.
func (lt *LockTable) Locks() []Lock {
	locks := make([]Lock, 0, len(lt.locks))
	for object, owner := range lt.locks {
		locks = append(locks, Lock{Object: object, Owner: owner})
	}
	slices.SortFunc(locks, func(a, b Lock) int {
		return strings.Compare(string(a.Object), string(b.Object))
	})
	return locks
}

// fingerprint writes the table, including per-owner acquisition order, in a
// canonical form.
func (lt *LockTable) fingerprint(b *strings.Builder) {
	owners := make([]schedule.TxID, 0, len(lt.held))
	for owner := range lt.held {
		owners = append(owners, owner)
	}
	slices.Sort(owners)

	for _, owner := range owners {
		b.WriteString(strconv.Quote(string(owner)))
		b.WriteByte('[')
		for _, object := range lt.held[owner] {
			b.WriteString(strconv.Quote(string(object)))
		}
		b.WriteByte(']')
	}
}
