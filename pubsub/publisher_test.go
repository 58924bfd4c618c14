package pubsub

import "testing"

func TestNewPublisherWithEmptyEndpointIsNoop(t *testing.T) {
	p, err := NewPublisher("")
	if err != nil {
		t.Fatalf("NewPublisher with empty endpoint should not error: %v", err)
	}
	if p != nil {
		t.Fatalf("NewPublisher with empty endpoint should return a nil Publisher")
	}

	// All operations on a nil Publisher must be safe no-ops.
	p.Publish("topic", []string{"body"})
	p.Shutdown()
	p.Close()
	if p.Running() {
		t.Fatalf("nil publisher should never report running")
	}
}

func TestTopicJoinsWithDots(t *testing.T) {
	if got := Topic("worker", "echo", "ready"); got != "worker.echo.ready" {
		t.Fatalf("unexpected topic: %q", got)
	}
}
