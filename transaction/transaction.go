package transaction

import (
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"waitdie/schedule"
)

// Transaction is the scheduling state of one transaction: its arrival
// timestamp, the operations still to run, every operation admitted for it
// so far, and the locks it is blocked on.
type Transaction struct {
	id        schedule.TxID
	timestamp uint64
	queue     []schedule.Operation
	history   []schedule.Operation
	blocked   bool
	waitingOn map[Lock]struct{}
}

func newTransaction(id schedule.TxID, timestamp uint64) *Transaction {
	return &Transaction{
		id:        id,
		timestamp: timestamp,
		waitingOn: make(map[Lock]struct{}),
	}
}

func (tx *Transaction) ID() schedule.TxID {
	return tx.id
}

// Timestamp is the arrival order of the transaction; smaller is older.
func (tx *Transaction) Timestamp() uint64 {
	return tx.timestamp
}

func (tx *Transaction) Blocked() bool {
	return tx.blocked
}

// Pending reports whether the transaction has queued operations.
func (tx *Transaction) Pending() bool {
	return len(tx.queue) > 0
}

// OlderThan reports whether tx arrived before other.
func (tx *Transaction) OlderThan(other *Transaction) bool {
	return tx.timestamp < other.timestamp
}

func (tx *Transaction) head() (schedule.Operation, bool) {
	if len(tx.queue) == 0 {
		return schedule.Operation{}, false
	}
	return tx.queue[0], true
}

// admit appends a newly admitted operation to both the queue and the
// history.
func (tx *Transaction) admit(op schedule.Operation) {
	tx.queue = append(tx.queue, op)
	tx.history = append(tx.history, op)
}

func (tx *Transaction) pop() error {
	if len(tx.queue) == 0 {
		return errors.AssertionFailedf("pop from empty queue of transaction %q", tx.id)
	}
	tx.queue = tx.queue[1:]
	return nil
}

// wait blocks the transaction on l.
func (tx *Transaction) wait(l Lock) {
	tx.waitingOn[l] = struct{}{}
	tx.blocked = true
}

// restart discards the queue and waiting set and requeues the full history.
func (tx *Transaction) restart() {
	tx.queue = slices.Clone(tx.history)
	clear(tx.waitingOn)
	tx.blocked = false
}

// syncWaits drops the locks that are no longer in lt from the waiting set
// and unblocks the transaction once the set is empty. It reports whether the
// transaction was unblocked.
func (tx *Transaction) syncWaits(lt *LockTable) bool {
	if !tx.blocked {
		return false
	}

	for l := range tx.waitingOn {
		if !lt.Holds(l) {
			delete(tx.waitingOn, l)
		}
	}
	if len(tx.waitingOn) > 0 {
		return false
	}

	tx.blocked = false
	return true
}

func (tx *Transaction) waits() []Lock {
	locks := make([]Lock, 0, len(tx.waitingOn))
	for l := range tx.waitingOn {
		locks = append(locks, l)
	}
	slices.SortFunc(locks, func(a, b Lock) int {
		if c := strings.Compare(string(a.Object), string(b.Object)); c != 0 {
			return c
		}
		return strings.Compare(string(a.Owner), string(b.Owner))
	})
	return locks
}

// TxState is a read-only copy of a transaction handed to observers.
type TxState struct {
	ID        schedule.TxID
	Timestamp uint64
	Queue     []schedule.Operation
	History   []schedule.Operation
	Blocked   bool
	WaitingOn []Lock
}

func (tx *Transaction) state() TxState {
	return TxState{
		ID:        tx.id,
		Timestamp: tx.timestamp,
		Queue:     slices.Clone(tx.queue),
		History:   slices.Clone(tx.history),
		Blocked:   tx.blocked,
		WaitingOn: tx.waits(),
	}
}

// fingerprint writes the parts of the state that change while the run is
// in progress.
func (tx *Transaction) fingerprint(b *strings.Builder) {
	b.WriteString(strconv.Quote(string(tx.id)))
	b.WriteByte(':')
	b.WriteString(strconv.FormatBool(tx.blocked))
	b.WriteByte(':')
	for _, op := range tx.queue {
		b.WriteString(strconv.Quote(op.String()))
	}
	b.WriteByte(':')
	for _, l := range tx.waits() {
		b.WriteString(strconv.Quote(string(l.Object)))
		b.WriteString(strconv.Quote(string(l.Owner)))
	}
	b.WriteByte(';')
}
