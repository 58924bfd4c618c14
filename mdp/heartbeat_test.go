package mdp

import (
	"testing"
	"time"
)

// TestPurgeIsFullScan verifies purge removes every expired worker
// regardless of its position in the waiting list, which is required once
// HEARTBEAT handling moves live workers to the tail out of strict expiry
// order (see heartbeat.go).
func TestPurgeIsFullScan(t *testing.T) {
	b := newTestBroker()
	svc := b.requireService("echo")

	past := time.Now().Add(-time.Second)
	future := time.Now().Add(time.Hour)

	expiredFirst := &worker{identity: "expired-first", service: svc, expiry: past}
	alive := &worker{identity: "alive", service: svc, expiry: future}
	expiredLast := &worker{identity: "expired-last", service: svc, expiry: past}

	b.workers[expiredFirst.identity] = expiredFirst
	b.workers[alive.identity] = alive
	b.workers[expiredLast.identity] = expiredLast
	b.waiting = []*worker{expiredFirst, alive, expiredLast}
	svc.waiting = append([]*worker{}, b.waiting...)

	b.purge()

	if len(b.waiting) != 1 || b.waiting[0] != alive {
		t.Fatalf("expected only the live worker to remain, got %+v", b.waiting)
	}
	if _, ok := b.workers["expired-first"]; ok {
		t.Fatalf("expired-first should have been purged")
	}
	if _, ok := b.workers["expired-last"]; ok {
		t.Fatalf("expired-last should have been purged even though it sorted after a live worker")
	}
}

func TestPurgeKeepsUnexpiredWorkers(t *testing.T) {
	b := newTestBroker()
	svc := b.requireService("echo")
	future := time.Now().Add(time.Hour)

	w := &worker{identity: "w", service: svc, expiry: future}
	b.workers[w.identity] = w
	b.waiting = []*worker{w}
	svc.waiting = []*worker{w}

	b.purge()

	if len(b.waiting) != 1 {
		t.Fatalf("live worker should not be purged")
	}
}
