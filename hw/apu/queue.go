package apu

import "fmt"

// QueuedWrite is a register write waiting for the mixer to reach the cycle
// it happened at.
type QueuedWrite struct {
	Timestamp int64 // CPU cycle
	Addr      uint16
	Val       uint8
}

func (w QueuedWrite) String() string {
	return fmt.Sprintf("$%04X=%02X@%d", w.Addr, w.Val, w.Timestamp)
}

const queueCap = 4096

// writeQueue is a bounded FIFO of register writes, ordered by timestamp.
type writeQueue struct {
	buf  [queueCap]QueuedWrite
	head int
	n    int
	last int64 // most recent timestamp pushed
}

func (q *writeQueue) len() int   { return q.n }
func (q *writeQueue) full() bool { return q.n == queueCap }

func (q *writeQueue) reset() {
	q.head, q.n, q.last = 0, 0, 0
}

// push appends w, which must not be older than the last pushed write. It
// returns false if the queue is full.
func (q *writeQueue) push(w QueuedWrite) bool {
	if q.full() {
		return false
	}
	if w.Timestamp < q.last {
		invariant(false, "write queue: timestamp %d older than %d", w.Timestamp, q.last)
		w.Timestamp = q.last
	}
	q.last = w.Timestamp
	q.buf[(q.head+q.n)%queueCap] = w
	q.n++
	return true
}

func (q *writeQueue) peek() (QueuedWrite, bool) {
	if q.n == 0 {
		return QueuedWrite{}, false
	}
	return q.buf[q.head], true
}

func (q *writeQueue) pop() (QueuedWrite, bool) {
	w, ok := q.peek()
	if ok {
		q.head = (q.head + 1) % queueCap
		q.n--
	}
	return w, ok
}
