package engine

import (
	"time"

	"github.com/eapache/queue"
)

// transaction is one confirmable message awaiting its ack.
type transaction struct {
	msg      Message
	packet   []byte
	server   *Server
	attempts int
	deadline time.Time
	done     bool
}

// transactionQueue keeps pending transactions in send order.
type transactionQueue struct {
	q *queue.Queue
}

func newTransactionQueue() *transactionQueue {
	return &transactionQueue{q: queue.New()}
}

func (t *transactionQueue) Len() int {
	return t.q.Length()
}

func (t *transactionQueue) Add(tx *transaction) {
	t.q.Add(tx)
}

func (t *transactionQueue) each(fn func(tx *transaction)) {
	for i := 0; i < t.q.Length(); i++ {
		tx := t.q.Get(i).(*transaction)
		if !tx.done {
			fn(tx)
		}
	}
}

// Ack marks the oldest pending transaction with id and server as done.
func (t *transactionQueue) Ack(server *Server, id uint16) *transaction {
	for i := 0; i < t.q.Length(); i++ {
		tx := t.q.Get(i).(*transaction)
		if !tx.done && tx.server == server && tx.msg.ID == id {
			tx.done = true
			return tx
		}
	}
	return nil
}

// Drop marks every pending transaction of server as done.
func (t *transactionQueue) Drop(server *Server) {
	t.each(func(tx *transaction) {
		if tx.server == server {
			tx.done = true
		}
	})
}

// Compact removes finished transactions while keeping order.
func (t *transactionQueue) Compact() {
	n := t.q.Length()
	for i := 0; i < n; i++ {
		tx := t.q.Remove().(*transaction)
		if !tx.done {
			t.q.Add(tx)
		}
	}
}

// Earliest returns the nearest retransmission deadline.
func (t *transactionQueue) Earliest() (time.Time, bool) {
	var out time.Time
	found := false
	t.each(func(tx *transaction) {
		if !found || tx.deadline.Before(out) {
			out = tx.deadline
			found = true
		}
	})
	return out, found
}
