package transaction

import (
	"waitdie/schedule"
)

// feed replays the input sequence one operation at a time.
type feed struct {
	input []schedule.Operation
	next  int
}

func newFeed(input []schedule.Operation) *feed {
	return &feed{input: input}
}

func (f *feed) pop() (schedule.Operation, bool) {
	if f.exhausted() {
		return schedule.Operation{}, false
	}
	op := f.input[f.next]
	f.next++
	return op, true
}

func (f *feed) exhausted() bool {
	return f.next >= len(f.input)
}

func (f *feed) admitted() int {
	return f.next
}
