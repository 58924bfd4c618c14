package mdp

import (
	"encoding/json"
	"testing"
)

func TestIsMMIRequest(t *testing.T) {
	if !isMMIRequest("mmi.service") {
		t.Fatalf("mmi.service should be recognized as a management request")
	}
	if isMMIRequest("echo") {
		t.Fatalf("echo should not be recognized as a management request")
	}
}

func TestHandleMMIServiceRegistered(t *testing.T) {
	b := newTestBroker()
	b.requireService("echo")

	reply := b.handleMMI(MMIService, []string{"echo"})
	if len(reply) != 1 || reply[0] != MMICodeOK {
		t.Fatalf("expected %q for a registered service, got %v", MMICodeOK, reply)
	}
}

func TestHandleMMIServiceUnregistered(t *testing.T) {
	b := newTestBroker()

	reply := b.handleMMI(MMIService, []string{"missing"})
	if len(reply) != 1 || reply[0] != MMICodeNotFound {
		t.Fatalf("expected %q for an unregistered service, got %v", MMICodeNotFound, reply)
	}
}

func TestHandleMMIServiceMissingArgument(t *testing.T) {
	b := newTestBroker()

	reply := b.handleMMI(MMIService, nil)
	if len(reply) != 1 || reply[0] != MMICodeNotFound {
		t.Fatalf("expected %q when no service name is given, got %v", MMICodeNotFound, reply)
	}
}

func TestHandleMMIServicesListing(t *testing.T) {
	b := newTestBroker()
	b.requireService("echo")
	b.requireService("time")

	reply := b.handleMMI(MMIServices, nil)
	if len(reply) != 1 {
		t.Fatalf("expected a single JSON frame, got %d", len(reply))
	}

	var decoded struct {
		Services []string `json:"services"`
	}
	if err := json.Unmarshal([]byte(reply[0]), &decoded); err != nil {
		t.Fatalf("failed to decode mmi.services reply: %v", err)
	}
	if len(decoded.Services) != 2 {
		t.Fatalf("expected 2 services, got %v", decoded.Services)
	}
}

func TestHandleMMIWorkersListing(t *testing.T) {
	b := newTestBroker()
	svc := b.requireService("echo")
	w := b.requireWorker("worker-1")
	w.service = svc

	reply := b.handleMMI(MMIWorkers, nil)
	var decoded struct {
		Workers []string `json:"workers"`
	}
	if err := json.Unmarshal([]byte(reply[0]), &decoded); err != nil {
		t.Fatalf("failed to decode mmi.workers reply: %v", err)
	}
	if len(decoded.Workers) != 1 || decoded.Workers[0] != "worker-1" {
		t.Fatalf("unexpected workers listing: %+v", decoded.Workers)
	}
}

func TestHandleMMIUnknownService(t *testing.T) {
	b := newTestBroker()

	reply := b.handleMMI("mmi.unknown", nil)
	if len(reply) != 1 || reply[0] != MMICodeNotImplemented {
		t.Fatalf("expected %q for an unimplemented mmi endpoint, got %v", MMICodeNotImplemented, reply)
	}
}
