// Package transport wraps goczmq sockets with the roles, CurveZMQ key
// attachment, and background event monitoring IronDomo's broker, worker and
// client all need.
package transport

import (
	"fmt"
	"sync"

	czmq "github.com/zeromq/goczmq/v4"
)

// Role identifies the ZeroMQ socket pattern a Socket wraps.
type Role int

const (
	RoleRouter Role = iota
	RoleDealer
	RolePub
)

func (r Role) String() string {
	switch r {
	case RoleRouter:
		return "router"
	case RoleDealer:
		return "dealer"
	case RolePub:
		return "pub"
	default:
		return "unknown"
	}
}

// CurveKeyPair is a CurveZMQ public/secret key pair in Z85 text encoding.
type CurveKeyPair struct {
	Public string
	Secret string
}

// Socket wraps a bound or connected goczmq socket, tracking enough metadata
// to log meaningfully and to run a background transport-event monitor.
type Socket struct {
	role     Role
	endpoint string
	sock     *czmq.Sock

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewRouter binds a ROUTER-role socket at endpoint with ZMQ_ROUTER_HANDOVER
// enabled, so a peer reconnecting with the same identity takes over routing
// instead of being dropped. When keys is non-nil the socket additionally
// requires and terminates CurveZMQ.
func NewRouter(endpoint string, keys *CurveKeyPair) (*Socket, error) {
	sock, err := czmq.NewRouter(endpoint)
	if err != nil {
		return nil, fmt.Errorf("transport: bind router %q: %w", endpoint, err)
	}

	sock.SetOption(czmq.SockSetRouterHandover(1))
	sock.SetOption(czmq.SockSetRcvhwm(500000))

	if keys != nil {
		sock.SetOption(czmq.SockSetCurveServer(1))
		sock.SetOption(czmq.SockSetCurvePublickey(keys.Public))
		sock.SetOption(czmq.SockSetCurveSecretkey(keys.Secret))
	}

	s := newSocket(RoleRouter, endpoint, sock)
	s.startMonitor()
	return s, nil
}

// NewDealer connects a DEALER-role socket to endpoint under identity. When
// keys is non-nil the connection authenticates via CurveZMQ against
// serverKey.
func NewDealer(endpoint, identity string, keys *CurveKeyPair, serverKey string) (*Socket, error) {
	sock, err := czmq.NewDealer(endpoint)
	if err != nil {
		return nil, fmt.Errorf("transport: connect dealer %q: %w", endpoint, err)
	}

	if identity != "" {
		sock.SetOption(czmq.SockSetIdentity(identity))
	}
	if keys != nil {
		sock.SetOption(czmq.SockSetCurvePublickey(keys.Public))
		sock.SetOption(czmq.SockSetCurveSecretkey(keys.Secret))
		sock.SetOption(czmq.SockSetCurveServerkey(serverKey))
	}

	s := newSocket(RoleDealer, endpoint, sock)
	s.startMonitor()
	return s, nil
}

// NewPub binds a PUB-role socket at endpoint.
func NewPub(endpoint string) (*Socket, error) {
	sock, err := czmq.NewPub(endpoint)
	if err != nil {
		return nil, fmt.Errorf("transport: bind pub %q: %w", endpoint, err)
	}
	s := newSocket(RolePub, endpoint, sock)
	s.startMonitor()
	return s, nil
}

func newSocket(role Role, endpoint string, sock *czmq.Sock) *Socket {
	return &Socket{role: role, endpoint: endpoint, sock: sock, done: make(chan struct{})}
}

// Raw exposes the underlying goczmq socket, for building a shared Poller
// across several Sockets.
func (s *Socket) Raw() *czmq.Sock { return s.sock }

// Role reports which socket pattern this Socket wraps.
func (s *Socket) Role() Role { return s.role }

// Endpoint returns the bind or connect address this Socket was created
// with.
func (s *Socket) Endpoint() string { return s.endpoint }

// Send writes a multi-frame message.
func (s *Socket) Send(frames [][]byte) error {
	return s.sock.SendMessage(frames)
}

// Recv reads a multi-frame message. Callers typically reach this socket via
// a Poller rather than calling Recv directly, to avoid blocking forever.
func (s *Socket) Recv() ([][]byte, error) {
	return s.sock.RecvMessage()
}

// Close stops the monitor goroutine and destroys the underlying socket.
// Close is safe to call more than once.
func (s *Socket) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	close(s.done)
	if s.sock != nil {
		s.sock.Destroy()
		s.sock = nil
	}
	s.closed = true
}
