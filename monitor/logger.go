package monitor

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"waitdie/transaction"
)

// LockTableLogger dumps the lock table and the pool after every visited
// transaction at trace level.
type LockTableLogger struct {
	logger hclog.Logger
}

func NewLockTableLogger(logger hclog.Logger) *LockTableLogger {
	return &LockTableLogger{logger: logger.Named("locktable")}
}

func (l *LockTableLogger) Observe(s transaction.Snapshot) {
	if !l.logger.IsTrace() {
		return
	}
	l.logger.Trace("state",
		"run_id", s.RunID,
		"round", s.Round,
		"txn", s.Tx,
		"locks", FormatLocks(s.Locks),
		"pool", FormatPool(s.Transactions))
}

// FormatLocks renders locks as "object:owner" pairs.
func FormatLocks(locks []transaction.Lock) string {
	parts := make([]string, len(locks))
	for i, l := range locks {
		parts[i] = fmt.Sprintf("%s:%s", l.Object, l.Owner)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// FormatPool renders each transaction as id@timestamp, its queue length and,
// when blocked, the locks it waits on.
func FormatPool(txs []transaction.TxState) string {
	parts := make([]string, len(txs))
	for i, tx := range txs {
		s := fmt.Sprintf("%s@%d q=%d", tx.ID, tx.Timestamp, len(tx.Queue))
		if tx.Blocked {
			s += " waiting=" + FormatLocks(tx.WaitingOn)
		}
		parts[i] = s
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
