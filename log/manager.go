package log

import (
	"sync"

	"github.com/cockroachdb/errors"

	"waitdie/schedule"
)

// DefaultSegmentSize is the number of records held by one log segment.
const DefaultSegmentSize = 256

// ErrNoRecord is returned when a log sequence number does not name a record.
var ErrNoRecord = errors.New("no log record")

// Manager is the append-only schedule log of a scheduler run. Records are
// numbered with log sequence numbers (LSNs) starting at 1 and are never
// modified or removed once appended. Records live in fixed-size segments so
// that growing the log never copies earlier records.
type Manager struct {
	mu          sync.Mutex
	segmentSize int
	segments    [][]schedule.Event
	latestLSN   int32
}

// NewManager creates an empty log. A non-positive segmentSize selects
// DefaultSegmentSize.
func NewManager(segmentSize int) *Manager {
	if segmentSize <= 0 {
		segmentSize = DefaultSegmentSize
	}
	return &Manager{segmentSize: segmentSize}
}

// Append adds a record to the end of the log and returns its LSN.
func (m *Manager) Append(record schedule.Event) int32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.segments) == 0 || len(m.currentSegment()) == m.segmentSize {
		// The current segment is full, so start a new one.
		m.appendNewSegment()
	}

	last := len(m.segments) - 1
	m.segments[last] = append(m.segments[last], record)
	m.latestLSN++

	return m.latestLSN
}

// LatestLSN returns the LSN of the most recent record, or 0 if the log is
// empty.
func (m *Manager) LatestLSN() int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latestLSN
}

// Get returns the record with the given LSN.
func (m *Manager) Get(lsn int32) (schedule.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(lsn)
}

// Iterator returns an iterator over the records appended after the given
// LSN, oldest first. Records appended after the iterator was created are not
// visited.
func (m *Manager) Iterator(after int32) *Iterator {
	m.mu.Lock()
	defer m.mu.Unlock()

	if after < 0 {
		after = 0
	}
	return newIterator(m, after, m.latestLSN)
}

// Since returns a copy of the records appended after the given LSN.
func (m *Manager) Since(after int32) []schedule.Event {
	iter := m.Iterator(after)

	records := make([]schedule.Event, 0, iter.Remaining())
	for iter.HasNext() {
		record, err := iter.Next()
		if err != nil {
			// Unreachable: the iterator is bounded by the LSN at creation.
			break
		}
		records = append(records, record)
	}
	return records
}

// Records returns a copy of the whole log.
func (m *Manager) Records() []schedule.Event {
	return m.Since(0)
}

func (m *Manager) get(lsn int32) (schedule.Event, error) {
	if lsn < 1 || lsn > m.latestLSN {
		return schedule.Event{}, errors.Wrapf(ErrNoRecord, "lsn %d (latest %d)", lsn, m.latestLSN)
	}
	pos := int(lsn - 1)
	return m.segments[pos/m.segmentSize][pos%m.segmentSize], nil
}

func (m *Manager) currentSegment() []schedule.Event {
	return m.segments[len(m.segments)-1]
}

func (m *Manager) appendNewSegment() {
	m.segments = append(m.segments, make([]schedule.Event, 0, m.segmentSize))
}
