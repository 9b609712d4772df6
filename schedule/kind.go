package schedule

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrUnsupportedOperationKind is returned when an operation carries a kind
// other than OpWrite or OpCommit.
var ErrUnsupportedOperationKind = errors.New("unsupported operation kind")

// OpKind is the kind of work an input operation requests.
type OpKind int32

const (
	OpWrite OpKind = iota + 1
	OpCommit
)

func (k OpKind) String() string {
	switch k {
	case OpWrite:
		return "write"
	case OpCommit:
		return "commit"
	default:
		return fmt.Sprintf("OpKind(%d)", int32(k))
	}
}

// Valid reports whether k is one of the supported operation kinds.
func (k OpKind) Valid() bool {
	return k == OpWrite || k == OpCommit
}

// Check returns ErrUnsupportedOperationKind, annotated with k, if k is not
// a supported kind.
func (k OpKind) Check() error {
	if k.Valid() {
		return nil
	}
	return errors.Wrapf(ErrUnsupportedOperationKind, "%s", k)
}

func (k OpKind) MarshalText() ([]byte, error) {
	if err := k.Check(); err != nil {
		return nil, err
	}
	return []byte(k.String()), nil
}

func (k *OpKind) UnmarshalText(text []byte) error {
	kind, err := ParseOpKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// ParseOpKind accepts the long ("write", "commit") and short ("w", "c")
// spellings, case-insensitively.
func ParseOpKind(s string) (OpKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "w", "write":
		return OpWrite, nil
	case "c", "commit":
		return OpCommit, nil
	default:
		return 0, errors.Wrapf(ErrUnsupportedOperationKind, "%q", s)
	}
}

// EventKind is the kind of an entry in the produced schedule.
type EventKind int32

const (
	EventWrite EventKind = iota + 1
	EventCommit
	EventLock
	EventWait
	EventRollback
	EventUnlock
)

var eventKindNames = map[EventKind]string{
	EventWrite:    "write",
	EventCommit:   "commit",
	EventLock:     "lock",
	EventWait:     "wait",
	EventRollback: "rollback",
	EventUnlock:   "unlock",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", int32(k))
}

// ParseEventKind is the inverse of EventKind.String.
func ParseEventKind(s string) (EventKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for kind, name := range eventKindNames {
		if name == s {
			return kind, nil
		}
	}
	return 0, errors.Newf("unknown event kind %q", s)
}
