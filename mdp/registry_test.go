package mdp

import "testing"

func newTestBroker() *Broker {
	return &Broker{
		services:     make(map[string]*service),
		workers:      make(map[string]*worker),
		ErrorChannel: make(chan error, 1),
	}
}

func TestRequireServiceIsLazy(t *testing.T) {
	b := newTestBroker()

	svc := b.requireService("echo")
	if svc.name != "echo" {
		t.Fatalf("expected service name %q, got %q", "echo", svc.name)
	}
	if got := b.requireService("echo"); got != svc {
		t.Fatalf("requireService should return the existing entry on repeat calls")
	}

	if _, ok := b.lookupService("unknown"); ok {
		t.Fatalf("lookupService must not create a missing entry")
	}
}

func TestRequireWorkerIsLazy(t *testing.T) {
	b := newTestBroker()

	w := b.requireWorker("worker-1")
	if w.identity != "worker-1" {
		t.Fatalf("expected identity %q, got %q", "worker-1", w.identity)
	}
	if got := b.requireWorker("worker-1"); got != w {
		t.Fatalf("requireWorker should return the existing entry on repeat calls")
	}
}

// TestDeleteWorkerDropsEmptyService exercises the documented behavior that
// removing the last idle worker of a service deletes the service entry
// (and, implicitly, any requests still queued under it).
func TestDeleteWorkerDropsEmptyService(t *testing.T) {
	b := newTestBroker()

	svc := b.requireService("echo")
	w1 := b.requireWorker("w1")
	w2 := b.requireWorker("w2")
	w1.service, w2.service = svc, svc
	svc.waiting = []*worker{w1, w2}
	b.waiting = []*worker{w1, w2}
	svc.requests = []pendingRequest{{body: []string{"queued"}}}

	b.deleteWorker(w1, false)
	if _, ok := b.lookupService("echo"); !ok {
		t.Fatalf("service should survive while a worker is still waiting")
	}

	b.deleteWorker(w2, false)
	if _, ok := b.lookupService("echo"); ok {
		t.Fatalf("service should be deleted once its last waiting worker is removed")
	}
	if _, ok := b.workers["w2"]; ok {
		t.Fatalf("deleted worker should be removed from the worker registry")
	}
}

func TestRemoveWorker(t *testing.T) {
	w1 := &worker{identity: "a"}
	w2 := &worker{identity: "b"}
	w3 := &worker{identity: "c"}

	list := []*worker{w1, w2, w3}
	list = removeWorker(list, w2)

	if len(list) != 2 || list[0] != w1 || list[1] != w3 {
		t.Fatalf("unexpected list after removal: %+v", list)
	}

	// Removing an absent worker is a no-op.
	list = removeWorker(list, w2)
	if len(list) != 2 {
		t.Fatalf("removing an absent worker should not change the list")
	}
}
