package schedule

import (
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
)

// term matches one "name(arg)" or "name(arg,arg)" item, optionally followed
// by a comma or semicolon separator.
var term = regexp.MustCompile(`^\s*([A-Za-z]+)\(\s*([^(),\s]*)\s*(?:,\s*([^(),\s]*)\s*)?\)\s*[,;]?`)

type parsedTerm struct {
	name string
	args []string
}

func scanTerms(s string) ([]parsedTerm, error) {
	var terms []parsedTerm
	rest := s
	for strings.TrimSpace(rest) != "" {
		m := term.FindStringSubmatchIndex(rest)
		if m == nil {
			return nil, errors.Newf("cannot parse %q at offset %d", s, len(s)-len(rest))
		}
		t := parsedTerm{name: rest[m[2]:m[3]]}
		t.args = append(t.args, rest[m[4]:m[5]])
		if m[6] >= 0 {
			t.args = append(t.args, rest[m[6]:m[7]])
		}
		terms = append(terms, t)
		rest = rest[m[1]:]
	}
	return terms, nil
}

// split returns the object and transaction of a term. A single argument is
// the transaction.
func (t parsedTerm) split() (ObjectID, TxID) {
	if len(t.args) == 1 {
		return "", TxID(t.args[0])
	}
	return ObjectID(t.args[0]), TxID(t.args[1])
}

// ParseOperations parses the compact notation used by tests and the CLI:
//
//	w(A,pear) w(B,apple) c(pear) commit(NA,apple)
//
// Writes take (object, transaction); commits take (transaction) or
// (object, transaction).
func ParseOperations(s string) ([]Operation, error) {
	terms, err := scanTerms(s)
	if err != nil {
		return nil, err
	}

	ops := make([]Operation, 0, len(terms))
	for _, t := range terms {
		kind, err := ParseOpKind(t.name)
		if err != nil {
			return nil, err
		}
		object, tx := t.split()
		op := Operation{Object: object, Tx: tx, Kind: kind}
		if err := Validate(op); err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// ParseEvents parses the notation produced by Format.
func ParseEvents(s string) ([]Event, error) {
	terms, err := scanTerms(s)
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(terms))
	for _, t := range terms {
		kind, err := ParseEventKind(t.name)
		if err != nil {
			return nil, err
		}
		object, tx := t.split()
		events = append(events, Event{Object: object, Tx: tx, Kind: kind})
	}
	return events, nil
}

// Validate checks that op names a transaction, that writes name an object,
// and that its kind is supported.
func Validate(op Operation) error {
	if err := op.Kind.Check(); err != nil {
		return err
	}
	if op.Tx == "" {
		return errors.Newf("%s: missing transaction", op)
	}
	if op.Kind == OpWrite && op.Object == "" {
		return errors.Newf("%s: write without an object", op)
	}
	return nil
}
