package mdp

import log "github.com/sirupsen/logrus"

// workerWaiting marks w idle: it joins the tail of both the global and the
// per-service waiting lists, its expiry is refreshed, and an immediate
// dispatch attempt is made in case a request is already queued for it.
func (b *Broker) workerWaiting(w *worker) {
	b.waiting = append(b.waiting, w)
	w.service.waiting = append(w.service.waiting, w)
	w.expiry = nowPlus(HeartbeatExpiry)
	b.dispatch(w.service, pendingRequest{})
}

// dispatch queues req onto svc (if it carries a body) and then pairs
// requests with idle workers in FIFO order until either queue empties. The
// command sent to a matched worker depends on which transport the
// originating request arrived on, not on the worker's own transport.
func (b *Broker) dispatch(svc *service, req pendingRequest) {
	if req.body != nil {
		svc.requests = append(svc.requests, req)
	}

	b.purge()
	for len(svc.waiting) > 0 && len(svc.requests) > 0 {
		var w *worker
		w, svc.waiting = popWorker(svc.waiting)
		b.waiting = removeWorker(b.waiting, w)

		next := svc.requests[0]
		svc.requests = svc.requests[1:]

		command := Request
		if next.transport == TransportEncrypted {
			command = RequestViaEncrypted
		}
		if err := b.sendToWorker(w, command, "", next.body); err != nil {
			log.WithError(err).Error("failed to dispatch request to worker")
		}
	}
}
