package transaction

import (
	"github.com/hashicorp/go-hclog"

	"waitdie/log"
	"waitdie/schedule"
)

// recorder appends events to the schedule log of a run.
type recorder struct {
	log    *log.Manager
	logger hclog.Logger
}

func (r *recorder) emit(object schedule.ObjectID, tx schedule.TxID, kind schedule.EventKind) {
	r.append(schedule.Event{Object: object, Tx: tx, Kind: kind})
}

func (r *recorder) emitOp(op schedule.Operation) {
	r.append(schedule.EventOf(op))
}

func (r *recorder) append(e schedule.Event) {
	lsn := r.log.Append(e)
	r.logger.Debug("event", "lsn", lsn, "kind", e.Kind, "object", e.Object, "txn", e.Tx)
}
