package transaction

import (
	"waitdie/schedule"
)

// Observer inspects run state after every transaction visited by a round.
// Snapshots are copies; observers cannot change the run.
type Observer interface {
	Observe(s Snapshot)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(s Snapshot)

func (f ObserverFunc) Observe(s Snapshot) {
	f(s)
}

// Snapshot is the state of a run right after Tx was visited.
type Snapshot struct {
	RunID string
	Round int
	Tx    schedule.TxID
	// Admitted is the number of input operations admitted so far.
	Admitted int
	// Events holds the events emitted while visiting Tx.
	Events       []schedule.Event
	Locks        []Lock
	Transactions []TxState
}

// Transaction returns the state of the transaction with the given id.
func (s Snapshot) Transaction(id schedule.TxID) (TxState, bool) {
	for _, st := range s.Transactions {
		if st.ID == id {
			return st, true
		}
	}
	return TxState{}, false
}
