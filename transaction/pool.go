package transaction

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/btree"

	"waitdie/schedule"
)

// Order is the canonical order in which a round visits the pool.
type Order int

const (
	// Ascending visits transactions by increasing id.
	Ascending Order = iota
	// Descending visits transactions by decreasing id.
	Descending
)

func (o Order) String() string {
	switch o {
	case Ascending:
		return "ascending"
	case Descending:
		return "descending"
	default:
		return "Order(?)"
	}
}

// ParseOrder accepts "asc", "ascending", "desc" and "descending".
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return 0, errors.Newf("unknown pool order %q", s)
	}
}

const poolDegree = 8

// Pool holds every transaction known to a run. Transactions are never
// removed; lookups go through the id map and rounds iterate the B-tree.
type Pool struct {
	order Order
	byID  map[schedule.TxID]*Transaction
	tree  *btree.BTreeG[*Transaction]
}

func NewPool(order Order) *Pool {
	return &Pool{
		order: order,
		byID:  make(map[schedule.TxID]*Transaction),
		tree: btree.NewG(poolDegree, func(a, b *Transaction) bool {
			return a.id < b.id
		}),
	}
}

func (p *Pool) Get(id schedule.TxID) (*Transaction, bool) {
	tx, ok := p.byID[id]
	return tx, ok
}

// Add inserts a new transaction. Adding an id twice is a programming error.
func (p *Pool) Add(tx *Transaction) error {
	if _, ok := p.byID[tx.id]; ok {
		return errors.AssertionFailedf("transaction %q is already in the pool", tx.id)
	}
	p.byID[tx.id] = tx
	p.tree.ReplaceOrInsert(tx)
	return nil
}

func (p *Pool) Len() int {
	return len(p.byID)
}

// Ordered returns the transactions in the pool's canonical order.
func (p *Pool) Ordered() []*Transaction {
	txs := make([]*Transaction, 0, p.tree.Len())
	visit := func(tx *Transaction) bool {
		txs = append(txs, tx)
		return true
	}
	if p.order == Descending {
		p.tree.Descend(visit)
	} else {
		p.tree.Ascend(visit)
	}
	return txs
}

// Pending reports whether any transaction has queued operations.
func (p *Pool) Pending() bool {
	for _, tx := range p.byID {
		if tx.Pending() {
			return true
		}
	}
	return false
}

// PendingIDs returns the ids of transactions with queued operations, in
// canonical order.
func (p *Pool) PendingIDs() []schedule.TxID {
	var ids []schedule.TxID
	for _, tx := range p.Ordered() {
		if tx.Pending() {
			ids = append(ids, tx.id)
		}
	}
	return ids
}
