// Package pubsub provides the broker's optional event fan-out: a PUB
// socket that mirrors every incoming non-management client request to any
// number of passive subscribers, independent of the request/reply path
// itself. Replies and worker lifecycle events are not published.
package pubsub

import (
	"context"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/waterviewsrl/IronDomo/transport"
)

var shutdownCommand = []byte("\x00SHUTDOWN")

// Publisher binds a PUB socket and serializes every Publish call onto it
// through an internal queue, so callers on the broker's hot path never
// block on a slow or absent subscriber.
type Publisher struct {
	endpoint string
	sock     *transport.Socket

	queue   chan [][]byte
	mu      sync.Mutex
	running bool
}

// NewPublisher binds endpoint and returns a Publisher ready to have its Run
// method driven by the caller's event loop. endpoint may be empty, in
// which case NewPublisher returns nil and publishing becomes a no-op --
// callers should check for a nil *Publisher before calling Publish.
func NewPublisher(endpoint string) (*Publisher, error) {
	if endpoint == "" {
		return nil, nil
	}

	sock, err := transport.NewPub(endpoint)
	if err != nil {
		return nil, err
	}

	return &Publisher{
		endpoint: endpoint,
		sock:     sock,
		queue:    make(chan [][]byte, 1024),
	}, nil
}

func (p *Publisher) defaultFields() log.Fields {
	return log.Fields{"endpoint": p.endpoint}
}

// Running reports whether the Publisher's Run loop is active.
func (p *Publisher) Running() bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Publish queues a topic/body frame pair for delivery. The topic is sent as
// the first frame so subscribers can filter with a SUBSCRIBE prefix. A nil
// Publisher silently drops the message -- fan-out is optional.
func (p *Publisher) Publish(topic string, body []string) {
	if p == nil {
		return
	}
	frames := make([][]byte, 0, len(body)+1)
	frames = append(frames, []byte(topic))
	for _, part := range body {
		frames = append(frames, []byte(part))
	}

	select {
	case p.queue <- frames:
	default:
		log.WithFields(p.defaultFields()).WithField("topic", topic).Warn("publisher queue full, dropping event")
	}
}

// Run drains the publish queue until ctx is cancelled or Shutdown is
// called, sending each queued frame set on the PUB socket.
func (p *Publisher) Run(ctx context.Context, wg *sync.WaitGroup) error {
	if p == nil {
		return nil
	}
	defer wg.Done()

	p.mu.Lock()
	p.running = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case frames := <-p.queue:
			if len(frames) == 1 && string(frames[0]) == string(shutdownCommand) {
				return nil
			}
			if err := p.sock.Send(frames); err != nil {
				log.WithFields(p.defaultFields()).WithError(err).Error("failed to publish event")
			}
		}
	}
}

// Shutdown requests Run to exit if it is currently running.
func (p *Publisher) Shutdown() {
	if p == nil || !p.Running() {
		return
	}
	p.queue <- [][]byte{shutdownCommand}
}

// Close releases the underlying socket. Callers should ensure Run has
// returned before calling Close.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.sock.Close()
}

// Topic joins parts into a dotted topic name, e.g. "worker.echo.ready". The
// broker publishes client requests under Topic("request", service).
func Topic(parts ...string) string {
	return strings.Join(parts, ".")
}
