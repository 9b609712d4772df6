package server

import (
	"sort"

	"github.com/cockroachdb/errors"

	"waitdie/schedule"
)

// ErrUnknownSample is returned by Sample for names not in Samples.
var ErrUnknownSample = errors.New("unknown sample")

// Samples are the built-in demonstration inputs, in compact notation.
var Samples = map[string]string{
	// A single transaction writing one object.
	"one": "w(A,pear) c(NA,pear)",
	// The younger apple dies on A and replays after pear commits.
	"two": "w(A,pear) w(B,apple) w(B,pear) w(A,apple) c(NA,apple) c(NA,pear)",
	// Three transactions where carrot dies twice before running last.
	"three": "w(A,pear) w(B,apple) w(C,carrot) w(B,pear) w(A,apple) c(NA,apple) " +
		"w(B,carrot) c(NA,pear) c(NA,carrot)",
}

// Sample parses the named built-in input.
func Sample(name string) ([]schedule.Operation, error) {
	s, ok := Samples[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownSample, "%q", name)
	}
	return schedule.ParseOperations(s)
}

// SampleNames lists the built-in inputs in sorted order.
func SampleNames() []string {
	names := make([]string, 0, len(Samples))
	for name := range Samples {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
