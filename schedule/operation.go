package schedule

import (
	"fmt"
	"strings"
)

// ObjectID names a lockable object.
type ObjectID string

// TxID names a transaction.
type TxID string

// Operation is one requested unit of work taken from the input sequence.
// Commit operations may leave Object empty.
type Operation struct {
	Object ObjectID `yaml:"object,omitempty"`
	Tx     TxID     `yaml:"txn"`
	Kind   OpKind   `yaml:"kind"`
}

// Write returns a write of object by tx.
func Write(object ObjectID, tx TxID) Operation {
	return Operation{Object: object, Tx: tx, Kind: OpWrite}
}

// Commit returns a commit of tx. The object is carried into the commit event
// unchanged and has no effect on scheduling.
func Commit(object ObjectID, tx TxID) Operation {
	return Operation{Object: object, Tx: tx, Kind: OpCommit}
}

func (o Operation) String() string {
	return format(o.Kind.String(), o.Object, o.Tx)
}

// Event is one entry of a produced schedule.
type Event struct {
	Object ObjectID
	Tx     TxID
	Kind   EventKind
}

func (e Event) String() string {
	return format(e.Kind.String(), e.Object, e.Tx)
}

// EventOf converts an operation that was applied as-is into its schedule
// event.
func EventOf(op Operation) Event {
	kind := EventWrite
	if op.Kind == OpCommit {
		kind = EventCommit
	}
	return Event{Object: op.Object, Tx: op.Tx, Kind: kind}
}

// Format renders events in the compact notation accepted by ParseEvents,
// separated by sep.
func Format(events []Event, sep string) string {
	parts := make([]string, len(events))
	for i, e := range events {
		parts[i] = e.String()
	}
	return strings.Join(parts, sep)
}

func format(kind string, object ObjectID, tx TxID) string {
	if object == "" {
		return fmt.Sprintf("%s(%s)", kind, tx)
	}
	return fmt.Sprintf("%s(%s,%s)", kind, object, tx)
}
