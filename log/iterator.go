package log

import (
	"waitdie/schedule"
)

// Iterator reads log records in append order between two LSNs fixed when
// the iterator is created.
type Iterator struct {
	manager *Manager
	current int32
	last    int32
}

func newIterator(manager *Manager, after, last int32) *Iterator {
	return &Iterator{
		manager: manager,
		current: after,
		last:    last,
	}
}

// HasNext returns true if there are more records to be read.
func (i *Iterator) HasNext() bool {
	return i.current < i.last
}

// Remaining returns the number of records not yet read.
func (i *Iterator) Remaining() int {
	return int(i.last - i.current)
}

// Next returns the next record. It returns ErrNoRecord once the iterator is
// exhausted.
func (i *Iterator) Next() (schedule.Event, error) {
	if !i.HasNext() {
		return schedule.Event{}, ErrNoRecord
	}

	record, err := i.manager.Get(i.current + 1)
	if err != nil {
		return schedule.Event{}, err
	}

	i.current++
	return record, nil
}
