package mdp

import "testing"

// TestDispatchQueuesWithoutWorkers checks that a request is queued (not
// dropped) when a service exists but has no idle workers, and that no send
// is attempted in that case.
func TestDispatchQueuesWithoutWorkers(t *testing.T) {
	b := newTestBroker()
	svc := b.requireService("echo")

	b.dispatch(svc, pendingRequest{body: []string{"client-1", "", "hello"}})

	if len(svc.requests) != 1 {
		t.Fatalf("expected 1 queued request, got %d", len(svc.requests))
	}
}

func TestDispatchIsFIFO(t *testing.T) {
	b := newTestBroker()
	svc := b.requireService("echo")

	b.dispatch(svc, pendingRequest{body: []string{"client-1", "", "first"}})
	b.dispatch(svc, pendingRequest{body: []string{"client-2", "", "second"}})

	if len(svc.requests) != 2 {
		t.Fatalf("expected 2 queued requests, got %d", len(svc.requests))
	}
	if svc.requests[0].body[2] != "first" || svc.requests[1].body[2] != "second" {
		t.Fatalf("requests should be queued in arrival order, got %+v", svc.requests)
	}
}

func TestDispatchEmptyRequestTriggersNoQueue(t *testing.T) {
	b := newTestBroker()
	svc := b.requireService("echo")

	// A zero-value pendingRequest (as used by workerWaiting to retry
	// dispatch after a worker becomes idle) must not enqueue a phantom
	// request.
	b.dispatch(svc, pendingRequest{})

	if len(svc.requests) != 0 {
		t.Fatalf("expected no queued requests, got %d", len(svc.requests))
	}
}
