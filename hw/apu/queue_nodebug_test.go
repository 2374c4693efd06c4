//go:build !nsfdebug

package apu

import "testing"

func TestQueueClampsTimestamps(t *testing.T) {
	var q writeQueue
	q.push(QueuedWrite{Timestamp: 100, Addr: 0x4000})
	q.push(QueuedWrite{Timestamp: 50, Addr: 0x4001})

	q.pop()
	w, _ := q.pop()
	if w.Timestamp != 100 {
		t.Errorf("timestamp = %d, want it clamped to 100", w.Timestamp)
	}
}
