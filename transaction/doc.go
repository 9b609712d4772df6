// Package transaction implements a single-threaded Wait-Die scheduler.
//
// Each round visits every transaction in the pool in canonical order and
// tries to advance the head of its queue, then admits the next input
// operation into the queue of the transaction that issued it. A write on an
// unlocked object takes an exclusive lock; a write on an object locked by
// another transaction is resolved by comparing arrival timestamps: an older
// requester waits, a younger one dies, is rolled back, releases its locks
// and restarts from the first operation it ever issued. A commit releases
// every lock of its transaction.
//
// Waiting is plain data: a blocked transaction is skipped by every round
// until all the locks it waits on have left the lock table.
package transaction
