package mdp

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// now and nowPlus are indirected through package variables so tests can
// control worker expiry without sleeping.
var (
	now     = time.Now
	nowPlus = func(d time.Duration) time.Time { return time.Now().Add(d) }
)

// purge removes every worker whose expiry has passed from the waiting
// lists. It scans the whole waiting list rather than stopping at the first
// live worker: a HEARTBEAT moves a worker to the tail of the list (see
// handleWorkerMessage), so the list is not kept in strict expiry order and
// a worker that expired earlier can still be reachable after one that
// expires later.
func (b *Broker) purge() {
	cutoff := now()
	var expired []*worker
	for _, w := range b.waiting {
		if !w.expiry.After(cutoff) {
			expired = append(expired, w)
		}
	}
	for _, w := range expired {
		log.WithField("worker", w.identity).Debug("purging expired worker")
		b.deleteWorker(w, false)
	}
}

// sendHeartbeats purges dead workers, reconciles the authenticator's
// credential directory, and pings every worker still waiting. Called once
// per HeartbeatInterval from the broker's run loop.
func (b *Broker) sendHeartbeats() {
	b.purge()
	if b.cfg.Authenticator != nil {
		b.cfg.Authenticator.Reconcile()
	}
	for _, w := range b.waiting {
		if err := b.sendToWorker(w, Heartbeat, "", nil); err != nil {
			log.WithError(err).Error("failed to send heartbeat")
		}
	}
}
