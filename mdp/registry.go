package mdp

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// service is the registry entry for one named service: a FIFO of client
// requests awaiting a worker, and a FIFO of workers awaiting a request. At
// steady state at most one of the two is non-empty.
type service struct {
	name     string
	requests []pendingRequest
	waiting  []*worker
}

// pendingRequest is a queued client request, tagged with the transport its
// eventual reply must be sent back on.
type pendingRequest struct {
	body      []string
	transport Transport
}

// worker is the registry entry for one connected worker.
type worker struct {
	identity string
	service  *service
	expiry   time.Time
	origin   Transport
}

// requireService is a lazy constructor: it returns the named service,
// creating an empty registry entry for it if this is the first time it has
// been seen.
func (b *Broker) requireService(name string) *service {
	svc, ok := b.services[name]
	if !ok {
		svc = &service{name: name}
		b.services[name] = svc
		log.WithField("service", name).Debug("registered new service")
	}
	return svc
}

// lookupService returns the named service without creating it.
func (b *Broker) lookupService(name string) (*service, bool) {
	svc, ok := b.services[name]
	return svc, ok
}

// requireWorker is a lazy constructor: it returns the worker registered
// under identity, creating an entry for it if this is the first time it has
// been seen.
func (b *Broker) requireWorker(identity string) *worker {
	w, ok := b.workers[identity]
	if !ok {
		w = &worker{identity: identity}
		b.workers[identity] = w
		log.WithField("worker", identity).Debug("registered new worker")
	}
	return w
}

// deleteWorker removes w from the worker and (if present) service waiting
// lists, sending it a DISCONNECT first when disconnect is true. Emptying a
// service's waiting list deletes the service itself, silently dropping any
// requests still queued under it — this mirrors the original broker's
// behavior and is not treated as a bug here (see DESIGN.md).
func (b *Broker) deleteWorker(w *worker, disconnect bool) {
	if disconnect {
		if err := b.sendToWorker(w, Disconnect, "", nil); err != nil {
			log.WithError(err).Warn("failed to send disconnect to worker")
		}
	}

	if w.service != nil {
		w.service.waiting = removeWorker(w.service.waiting, w)
		if len(w.service.waiting) == 0 {
			delete(b.services, w.service.name)
		}
		w.service = nil
	}

	b.waiting = removeWorker(b.waiting, w)
	delete(b.workers, w.identity)
}

func removeWorker(workers []*worker, target *worker) []*worker {
	for i, w := range workers {
		if w == target {
			return append(workers[:i], workers[i+1:]...)
		}
	}
	return workers
}

func popWorker(workers []*worker) (*worker, []*worker) {
	return workers[0], workers[1:]
}
