package transaction

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"waitdie/log"
	"waitdie/schedule"
)

// ErrRoundLimitExceeded is returned when a run needs more rounds than
// Options.MaxRounds allows.
var ErrRoundLimitExceeded = errors.New("round limit exceeded")

// Options configure a Scheduler.
type Options struct {
	// Order is the canonical order in which each round visits the pool.
	Order Order
	// MaxRounds aborts a run after this many rounds. Zero means no limit.
	MaxRounds int
	// SegmentSize is passed to the schedule log of each run.
	SegmentSize int
	// Logger defaults to a null logger.
	Logger    hclog.Logger
	Observers []Observer
}

// Result is the outcome of one run.
type Result struct {
	RunID  string
	Events []schedule.Event
	Rounds int
	// Stalled lists transactions left with queued operations because the
	// run reached a state it had already been in after all input was
	// admitted, e.g. when a lock holder never commits.
	Stalled []schedule.TxID
}

// Scheduler produces Wait-Die schedules. All state of a run lives in the run
// itself, so one Scheduler may serve several runs, including concurrently
// as long as its observers are safe for concurrent use.
type Scheduler struct {
	opts Options
}

func NewScheduler(opts Options) *Scheduler {
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	return &Scheduler{opts: opts}
}

// Run schedules input and returns the produced schedule.
func (s *Scheduler) Run(ctx context.Context, input []schedule.Operation) (*Result, error) {
	r := s.newRun(input)
	r.logger.Info("starting run", "operations", len(input), "order", s.opts.Order)

	res, err := r.run(ctx)
	if err != nil {
		r.logger.Error("run failed", "round", r.round, "error", err)
		return nil, err
	}

	r.logger.Info("run finished", "rounds", res.Rounds, "events", len(res.Events), "stalled", len(res.Stalled))
	return res, nil
}

type run struct {
	id        string
	opts      Options
	logger    hclog.Logger
	feed      *feed
	pool      *Pool
	lockTable *LockTable
	log       *log.Manager
	rec       *recorder
	cm        *ConcurrencyManager
	rm        *RecoveryManager

	// clock hands out transaction timestamps in creation order.
	clock uint64
	round int
	seen  map[string]struct{}
}

func (s *Scheduler) newRun(input []schedule.Operation) *run {
	id := uuid.NewString()
	logger := s.opts.Logger.Named("scheduler").With("run_id", id)

	lockTable := NewLockTable()
	pool := NewPool(s.opts.Order)
	rec := &recorder{log: log.NewManager(s.opts.SegmentSize), logger: logger}
	rm := newRecoveryManager(lockTable, rec)

	return &run{
		id:        id,
		opts:      s.opts,
		logger:    logger,
		feed:      newFeed(input),
		pool:      pool,
		lockTable: lockTable,
		log:       rec.log,
		rec:       rec,
		cm:        newConcurrencyManager(lockTable, pool, rm, rec),
		rm:        rm,
		seen:      make(map[string]struct{}),
	}
}

func (r *run) run(ctx context.Context) (*Result, error) {
	var stalled []schedule.TxID
	for r.pool.Pending() || !r.feed.exhausted() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if r.opts.MaxRounds > 0 && r.round >= r.opts.MaxRounds {
			return nil, errors.Wrapf(ErrRoundLimitExceeded, "after %d rounds", r.round)
		}

		r.round++
		if err := r.step(); err != nil {
			return nil, errors.Wrapf(err, "round %d", r.round)
		}
		if err := r.admit(); err != nil {
			return nil, errors.Wrapf(err, "round %d", r.round)
		}

		if r.feed.exhausted() && r.repeated() {
			stalled = r.pool.PendingIDs()
			r.logger.Warn("run stalled", "round", r.round, "transactions", stalled)
			break
		}
	}

	return &Result{
		RunID:   r.id,
		Events:  r.log.Records(),
		Rounds:  r.round,
		Stalled: stalled,
	}, nil
}

// step visits every transaction once in canonical order.
func (r *run) step() error {
	for _, tx := range r.pool.Ordered() {
		if !tx.Pending() {
			continue
		}

		mark := r.log.LatestLSN()
		if !tx.blocked {
			if err := r.process(tx); err != nil {
				return err
			}
		}

		r.syncWaits()
		r.notify(tx, mark)
	}
	return nil
}

// process advances the head of tx's queue.
func (r *run) process(tx *Transaction) error {
	op, ok := tx.head()
	if !ok {
		return errors.AssertionFailedf("processing transaction %q with an empty queue", tx.id)
	}

	switch op.Kind {
	case schedule.OpWrite:
		if !r.lockTable.Exists(op.Object) {
			if err := r.lockTable.Acquire(op.Object, tx.id); err != nil {
				return err
			}
			r.rec.emit(op.Object, tx.id, schedule.EventLock)
			r.rec.emitOp(op)
			return tx.pop()
		}

		owner, err := r.lockTable.OwnerOf(op.Object)
		if err != nil {
			return err
		}
		if owner == tx.id {
			r.rec.emitOp(op)
			return tx.pop()
		}

		_, err = r.cm.Resolve(tx, op.Object)
		return err

	case schedule.OpCommit:
		r.rm.Commit(tx, op)
		return tx.pop()

	default:
		return errors.Wrapf(op.Kind.Check(), "transaction %q", tx.id)
	}
}

// syncWaits unblocks transactions whose awaited locks have all been
// released.
func (r *run) syncWaits() {
	for _, tx := range r.pool.byID {
		if tx.syncWaits(r.lockTable) {
			r.logger.Trace("transaction unblocked", "txn", tx.id)
		}
	}
}

// admit moves the next input operation into its transaction's queue,
// creating the transaction on first sight.
func (r *run) admit() error {
	op, ok := r.feed.pop()
	if !ok {
		return nil
	}
	if err := op.Kind.Check(); err != nil {
		return errors.Wrapf(err, "admitting operation %d", r.feed.admitted())
	}

	tx, ok := r.pool.Get(op.Tx)
	if !ok {
		tx = newTransaction(op.Tx, r.clock)
		r.clock++
		if err := r.pool.Add(tx); err != nil {
			return err
		}
		r.logger.Trace("transaction created", "txn", tx.id, "timestamp", tx.Timestamp())
	}
	tx.admit(op)
	return nil
}

// repeated records the current state and reports whether it was seen
// before. Only meaningful once all input is admitted, when the rest of the
// run is fully determined by this state.
func (r *run) repeated() bool {
	var b strings.Builder
	for _, tx := range r.pool.Ordered() {
		tx.fingerprint(&b)
	}
	b.WriteByte('|')
	r.lockTable.fingerprint(&b)

	key := b.String()
	if _, ok := r.seen[key]; ok {
		return true
	}
	r.seen[key] = struct{}{}
	return false
}

func (r *run) notify(tx *Transaction, mark int32) {
	if len(r.opts.Observers) == 0 {
		return
	}

	txs := r.pool.Ordered()
	snap := Snapshot{
		RunID:        r.id,
		Round:        r.round,
		Tx:           tx.id,
		Admitted:     r.feed.admitted(),
		Events:       r.log.Since(mark),
		Locks:        r.lockTable.Locks(),
		Transactions: make([]TxState, len(txs)),
	}
	for i, t := range txs {
		snap.Transactions[i] = t.state()
	}

	for _, o := range r.opts.Observers {
		o.Observe(snap)
	}
}
