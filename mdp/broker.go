package mdp

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	czmq "github.com/zeromq/goczmq/v4"

	"github.com/waterviewsrl/IronDomo/auth"
	"github.com/waterviewsrl/IronDomo/pubsub"
	"github.com/waterviewsrl/IronDomo/transport"
)

// Config configures a Broker instance.
type Config struct {
	// PlainEndpoint is the plaintext ROUTER endpoint. Required.
	PlainEndpoint string
	// EncryptedEndpoint, if set, binds a second ROUTER endpoint
	// authenticated with CurveZMQ using CurveKeys and Authenticator.
	EncryptedEndpoint string
	CurveKeys         *transport.CurveKeyPair
	Authenticator     *auth.Authenticator
	// PublishEndpoint, if set, mirrors every non-management client request
	// to a PUB socket bound at this address.
	PublishEndpoint string
}

// Broker is a single-threaded, cooperatively scheduled request/reply
// broker. All registry mutation and dispatch happens inside Run's poll
// loop, so none of its internal state needs locking.
type Broker struct {
	cfg Config

	plain     *transport.Socket
	encrypted *transport.Socket
	publisher *pubsub.Publisher

	services map[string]*service
	workers  map[string]*worker
	waiting  []*worker

	heartbeatAt time.Time

	// ErrorChannel receives non-fatal errors encountered while routing
	// messages, for callers that want to observe them asynchronously.
	ErrorChannel chan error

	pubCancel context.CancelFunc
	pubWG     sync.WaitGroup
}

// NewBroker binds cfg.PlainEndpoint and, if configured, cfg.EncryptedEndpoint
// and cfg.PublishEndpoint.
func NewBroker(cfg Config) (*Broker, error) {
	if cfg.PlainEndpoint == "" {
		return nil, fmt.Errorf("mdp: PlainEndpoint is required")
	}

	b := &Broker{
		cfg:          cfg,
		services:     make(map[string]*service),
		workers:      make(map[string]*worker),
		heartbeatAt:  nowPlus(HeartbeatInterval),
		ErrorChannel: make(chan error, 1),
	}

	plain, err := transport.NewRouter(cfg.PlainEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("bind plaintext endpoint: %w", err)
	}
	b.plain = plain

	if cfg.EncryptedEndpoint != "" {
		if cfg.CurveKeys == nil {
			b.plain.Close()
			return nil, fmt.Errorf("mdp: EncryptedEndpoint requires CurveKeys")
		}
		encrypted, err := transport.NewRouter(cfg.EncryptedEndpoint, cfg.CurveKeys)
		if err != nil {
			b.plain.Close()
			return nil, fmt.Errorf("bind encrypted endpoint: %w", err)
		}
		b.encrypted = encrypted

		if cfg.Authenticator != nil {
			if err := cfg.Authenticator.Start(); err != nil {
				b.Close()
				return nil, fmt.Errorf("start authenticator: %w", err)
			}
		}
	}

	if cfg.PublishEndpoint != "" {
		pub, err := pubsub.NewPublisher(cfg.PublishEndpoint)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("bind publish endpoint: %w", err)
		}
		b.publisher = pub

		ctx, cancel := context.WithCancel(context.Background())
		b.pubCancel = cancel
		b.pubWG.Add(1)
		go func() {
			if err := pub.Run(ctx, &b.pubWG); err != nil {
				log.WithError(err).Error("publisher run loop exited with an error")
			}
		}()
	}

	log.WithFields(log.Fields{
		"plain":     cfg.PlainEndpoint,
		"encrypted": cfg.EncryptedEndpoint,
		"publish":   cfg.PublishEndpoint,
	}).Info("broker bound")

	return b, nil
}

// Close releases the broker's sockets and stops its authenticator.
func (b *Broker) Close() {
	if b.cfg.Authenticator != nil {
		b.cfg.Authenticator.Stop()
	}
	if b.publisher != nil {
		b.pubCancel()
		b.pubWG.Wait()
		b.publisher.Close()
	}
	if b.encrypted != nil {
		b.encrypted.Close()
	}
	if b.plain != nil {
		b.plain.Close()
	}
}

// Run drives the broker's single poll loop until done is closed or a
// socket error occurs.
func (b *Broker) Run(done <-chan struct{}) error {
	socks := []*czmq.Sock{b.plain.Raw()}
	if b.encrypted != nil {
		socks = append(socks, b.encrypted.Raw())
	}
	poller, err := czmq.NewPoller(socks...)
	if err != nil {
		return fmt.Errorf("create poller: %w", err)
	}
	defer poller.Destroy()

	log.Debug("broker run loop starting")
	for {
		select {
		case <-done:
			log.Debug("broker run loop stopping")
			return nil
		default:
		}

		ready, err := poller.Wait(int(HeartbeatInterval / time.Millisecond))
		if err != nil {
			return fmt.Errorf("poll: %w", err)
		}

		if ready != nil {
			sock, transportTag := b.plain, TransportPlain
			if b.encrypted != nil && ready == b.encrypted.Raw() {
				sock, transportTag = b.encrypted, TransportEncrypted
			}
			if err := b.route(sock, transportTag); err != nil {
				log.WithError(err).Warn("failed to route message")
				select {
				case b.ErrorChannel <- err:
				default:
				}
			}
		}

		if now().After(b.heartbeatAt) {
			b.sendHeartbeats()
			b.heartbeatAt = nowPlus(HeartbeatInterval)
		}
	}
}

// route reads one message off sock and dispatches it to the client or
// worker handler based on its header frame.
func (b *Broker) route(sock *transport.Socket, t Transport) error {
	frames, err := sock.Recv()
	if err != nil {
		return err
	}
	msg := toStrings(frames)
	if len(msg) < 3 {
		return fmt.Errorf("short message: %d frames", len(msg))
	}

	sender, msg := popStr(msg)
	_, msg = popStr(msg) // empty delimiter
	header, msg := popStr(msg)

	switch header {
	case ClientHeader:
		return b.handleClientMessage(sock, t, sender, msg)
	case WorkerHeader:
		return b.handleWorkerMessage(t, sender, msg)
	default:
		return fmt.Errorf("unknown header %q from %q", header, sender)
	}
}

// handleClientMessage processes one request from a client: management
// requests are answered in-process, everything else is queued for
// dispatch to the named service if it exists. A request naming a service
// with no registered workers is silently dropped, matching the protocol's
// at-most-once delivery guarantee.
func (b *Broker) handleClientMessage(sock *transport.Socket, t Transport, sender string, msg []string) error {
	if len(msg) < 1 {
		return fmt.Errorf("client message from %q missing service name", sender)
	}
	name, body := popStr(msg)

	if isMMIRequest(name) {
		reply := b.handleMMI(name, body)
		return b.replyToClient(sock, sender, name, reply)
	}

	if b.publisher != nil {
		b.publisher.Publish(pubsub.Topic("request", name), wrap(sender, body))
	}

	svc, ok := b.lookupService(name)
	if !ok {
		log.WithFields(log.Fields{"service": name, "client": sender}).Debug("request for unknown service dropped")
		return nil
	}

	b.dispatch(svc, pendingRequest{body: wrap(sender, body), transport: t})
	return nil
}

// handleWorkerMessage processes one READY, REPLY(-VIA-ENCRYPTED), HEARTBEAT
// or DISCONNECT message from a worker.
func (b *Broker) handleWorkerMessage(t Transport, sender string, msg []string) error {
	if len(msg) == 0 {
		return fmt.Errorf("empty worker message from %q", sender)
	}
	command, msg := popStr(msg)

	_, known := b.workers[sender]
	w := b.requireWorker(sender)
	if !known {
		w.origin = t
	}

	switch command {
	case Ready:
		if known {
			b.deleteWorker(w, true)
			return fmt.Errorf("duplicate READY from worker %q", sender)
		}
		if len(msg) < 1 || msg[0] == "" {
			b.deleteWorker(w, true)
			return fmt.Errorf("READY from %q missing service name", sender)
		}
		serviceName, _ := popStr(msg)
		if isMMIRequest(serviceName) {
			b.deleteWorker(w, true)
			return fmt.Errorf("worker %q may not register for management service %q", sender, serviceName)
		}
		w.service = b.requireService(serviceName)
		b.workerWaiting(w)

	case Reply, ReplyViaEncrypted:
		if !known {
			b.deleteWorker(w, true)
			return fmt.Errorf("%s from unregistered worker %q", commandNames[command], sender)
		}
		if w.service == nil {
			return fmt.Errorf("%s from worker %q with no owning service", commandNames[command], sender)
		}
		clientIdentity, body := unwrap(msg)
		replySock := b.plain
		if command == ReplyViaEncrypted {
			if b.encrypted == nil {
				return fmt.Errorf("reply-via-encrypted from %q but no encrypted endpoint is bound", sender)
			}
			replySock = b.encrypted
		}
		if err := b.replyToClient(replySock, clientIdentity, w.service.name, body); err != nil {
			return err
		}
		b.workerWaiting(w)

	case Heartbeat:
		if !known {
			b.deleteWorker(w, true)
			return nil
		}
		w.expiry = nowPlus(HeartbeatExpiry)
		// Requeue at the tail so heartbeats keep the most-recently-heard
		// worker furthest from the front of the purge scan. A busy worker is
		// not in the waiting lists and is not added to them here.
		if idle := removeWorker(b.waiting, w); len(idle) < len(b.waiting) {
			b.waiting = append(idle, w)
			if w.service != nil {
				w.service.waiting = append(removeWorker(w.service.waiting, w), w)
			}
		}

	case Disconnect:
		b.deleteWorker(w, false)

	default:
		return fmt.Errorf("invalid worker command %q from %q", command, sender)
	}

	return nil
}

// sendToWorker frames and sends command (with an optional option frame and
// body) to w on whichever endpoint w originally connected through.
func (b *Broker) sendToWorker(w *worker, command, option string, body []string) error {
	sock := b.plain
	if w.origin == TransportEncrypted {
		if b.encrypted == nil {
			return fmt.Errorf("worker %q requires the encrypted endpoint, which is not bound", w.identity)
		}
		sock = b.encrypted
	}

	frame := make([]string, 0, 5+len(body))
	frame = append(frame, w.identity, "", WorkerHeader, command)
	if option != "" {
		frame = append(frame, option)
	}
	frame = append(frame, body...)

	log.WithFields(log.Fields{"worker": w.identity, "command": commandNames[command]}).Trace("sending message to worker")
	return sock.Send(toFrames(frame))
}

// replyToClient frames and sends a reply body, from the management service
// or from a worker, back to a client on sock.
func (b *Broker) replyToClient(sock *transport.Socket, clientIdentity, service string, body []string) error {
	frame := make([]string, 0, 4+len(body))
	frame = append(frame, clientIdentity, "", ClientHeader, service)
	frame = append(frame, body...)
	return sock.Send(toFrames(frame))
}
