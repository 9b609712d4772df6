package log

import (
	"fmt"
	"testing"

	"waitdie/schedule"
)

func setup(t *testing.T, segmentSize int, n int) (*Manager, []schedule.Event) {
	t.Helper()
	m := NewManager(segmentSize)
	records := make([]schedule.Event, n)
	for i := range records {
		records[i] = schedule.Event{
			Object: schedule.ObjectID(fmt.Sprintf("obj%d", i)),
			Tx:     "T1",
			Kind:   schedule.EventWrite,
		}
		if lsn := m.Append(records[i]); lsn != int32(i+1) {
			t.Fatalf("Append() returned lsn %d, want %d", lsn, i+1)
		}
	}
	return m, records
}
