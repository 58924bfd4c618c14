package mdp

import (
	"fmt"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"
	czmq "github.com/zeromq/goczmq/v4"

	"github.com/waterviewsrl/IronDomo/transport"
)

// Worker is a client-side helper that registers with a broker for one
// named service and exchanges REQUEST/REPLY pairs with it. It speaks
// exactly one of the broker's two transports, selected by whether keys is
// supplied.
type Worker struct {
	endpoint string
	service  string
	identity string

	curveKeys *transport.CurveKeyPair
	serverKey string

	sock   *transport.Socket
	poller *czmq.Poller

	heartbeat   time.Duration
	reconnect   time.Duration
	liveness    int
	heartbeatAt time.Time

	idleTimeout  time.Duration
	lastActivity time.Time

	replyTo       string
	replyViaCurve bool

	shutdown bool
}

// NewWorker connects a worker to endpoint and registers it for service.
// When keys is non-nil the connection authenticates via CurveZMQ against
// serverKey. Each reply uses REPLY-VIA-ENCRYPTED when the request it answers
// arrived as REQUEST-VIA-ENCRYPTED, and REPLY otherwise.
func NewWorker(endpoint, service string, keys *transport.CurveKeyPair, serverKey string) (*Worker, error) {
	w := &Worker{
		endpoint:  endpoint,
		service:   service,
		curveKeys: keys,
		serverKey: serverKey,
		heartbeat: HeartbeatInterval,
		reconnect: HeartbeatInterval,
	}
	if err := w.connect(); err != nil {
		return nil, err
	}
	return w, nil
}

// SetHeartbeat overrides the default heartbeat send interval.
func (w *Worker) SetHeartbeat(d time.Duration) { w.heartbeat = d }

// SetReconnect overrides the delay before reconnecting after the broker is
// judged unreachable.
func (w *Worker) SetReconnect(d time.Duration) { w.reconnect = d }

// SetIdleTimeout makes Recv return (nil, nil) if no request arrives within
// d of the last one. Zero, the default, disables idle tracking.
func (w *Worker) SetIdleTimeout(d time.Duration) { w.idleTimeout = d }

func (w *Worker) connect() error {
	if w.sock != nil {
		w.sock.Close()
	}
	if w.poller != nil {
		w.poller.Destroy()
	}

	w.identity = fmt.Sprintf("%s-%06x", w.service, rand.Intn(1<<24)) //nolint:gosec

	sock, err := transport.NewDealer(w.endpoint, w.identity, w.curveKeys, w.serverKey)
	if err != nil {
		return NewConnectionFailedError(w.endpoint, err)
	}
	w.sock = sock

	poller, err := czmq.NewPoller(sock.Raw())
	if err != nil {
		return NewConnectionFailedError(w.endpoint, err)
	}
	w.poller = poller

	w.liveness = HeartbeatLiveness
	w.heartbeatAt = time.Now().Add(w.heartbeat)
	w.lastActivity = time.Now()
	w.replyTo = ""

	if err := w.sendToBroker(Ready, w.service, nil); err != nil {
		return err
	}

	log.WithFields(log.Fields{"endpoint": w.endpoint, "service": w.service, "identity": w.identity}).
		Info("worker connected to broker")
	return nil
}

func (w *Worker) sendToBroker(command, option string, body []string) error {
	frame := make([]string, 0, 4+len(body))
	frame = append(frame, "", WorkerHeader, command)
	if option != "" {
		frame = append(frame, option)
	}
	frame = append(frame, body...)
	return w.sock.Send(toFrames(frame))
}

func (w *Worker) reply(body []string) error {
	if w.replyTo == "" {
		return fmt.Errorf("mdp: no pending request to reply to")
	}
	command := Reply
	if w.replyViaCurve {
		command = ReplyViaEncrypted
	}
	msg := wrap(w.replyTo, body)
	w.replyTo = ""
	return w.sendToBroker(command, "", msg)
}

// Recv sends reply as the response to the previously received request (if
// reply is non-nil), then blocks until the next request arrives and returns
// its body. It returns (nil, nil) if Shutdown was called or an idle
// timeout elapses with no request; any other condition is returned as an
// error.
func (w *Worker) Recv(reply []string) ([]string, error) {
	if reply != nil {
		if err := w.reply(reply); err != nil {
			return nil, err
		}
	}

	for {
		if w.shutdown {
			return nil, nil
		}

		sock, err := w.poller.Wait(int(w.heartbeat / time.Millisecond))
		if err != nil {
			return nil, NewMDPError(ErrCodeSocketError, "poll failed", err)
		}

		if sock == nil {
			if w.idleTimeout > 0 && time.Since(w.lastActivity) >= w.idleTimeout {
				log.Debug("worker idle timeout elapsed")
				return nil, nil
			}
			w.liveness--
			if w.liveness <= 0 {
				log.Warn("worker lost contact with broker, reconnecting")
				time.Sleep(w.reconnect)
				if err := w.connect(); err != nil {
					return nil, err
				}
			}
		} else {
			frames, err := sock.RecvMessage()
			if err != nil {
				return nil, NewMDPError(ErrCodeSocketError, "recv failed", err)
			}
			msg := toStrings(frames)
			w.liveness = HeartbeatLiveness

			if len(msg) < 3 || msg[0] != "" {
				log.WithField("frames", msg).Warn("malformed message from broker")
				continue
			}
			if msg[1] != WorkerHeader {
				log.WithField("header", msg[1]).Warn("unexpected header from broker")
				continue
			}

			command := msg[2]
			body := msg[3:]

			switch command {
			case Request, RequestViaEncrypted:
				w.replyViaCurve = command == RequestViaEncrypted
				w.replyTo, body = unwrap(body)
				w.lastActivity = time.Now()
				return body, nil
			case Heartbeat:
				// liveness already refreshed above
			case Disconnect:
				log.Info("broker requested disconnect, reconnecting")
				if err := w.connect(); err != nil {
					return nil, err
				}
			default:
				log.WithField("command", command).Warn("unexpected command from broker")
			}
		}

		if time.Now().After(w.heartbeatAt) {
			if err := w.sendToBroker(Heartbeat, "", nil); err != nil {
				return nil, err
			}
			w.heartbeatAt = time.Now().Add(w.heartbeat)
		}
	}
}

// Shutdown requests that Recv return at its next opportunity.
func (w *Worker) Shutdown() {
	w.shutdown = true
}

// Close releases the worker's socket and poller.
func (w *Worker) Close() {
	if w.poller != nil {
		w.poller.Destroy()
		w.poller = nil
	}
	if w.sock != nil {
		w.sock.Close()
		w.sock = nil
	}
}
