package mdp

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	czmq "github.com/zeromq/goczmq/v4"

	"github.com/waterviewsrl/IronDomo/transport"
)

// Client is a synchronous request/reply client connected to one broker
// endpoint. A Client instance is not safe for concurrent use.
type Client struct {
	endpoint string
	conns    int

	curveKeys *transport.CurveKeyPair
	serverKey string

	sock   *transport.Socket
	poller *czmq.Poller

	// Timeout bounds how long a single attempt waits for a reply.
	Timeout time.Duration
	// Retries is the number of attempts made before Send gives up.
	Retries int
}

// NewClient connects a client to endpoint. When keys is non-nil the
// connection authenticates via CurveZMQ against serverKey.
func NewClient(endpoint string, keys *transport.CurveKeyPair, serverKey string) (*Client, error) {
	c := &Client{
		endpoint:  endpoint,
		curveKeys: keys,
		serverKey: serverKey,
		Timeout:   2500 * time.Millisecond,
		Retries:   3,
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect() error {
	if c.sock != nil {
		c.sock.Close()
	}
	if c.poller != nil {
		c.poller.Destroy()
	}

	c.conns++
	identity := fmt.Sprintf("client-%d-%d", time.Now().UnixNano()%1_000_000, c.conns)

	sock, err := transport.NewDealer(c.endpoint, identity, c.curveKeys, c.serverKey)
	if err != nil {
		return NewConnectionFailedError(c.endpoint, err)
	}
	c.sock = sock

	poller, err := czmq.NewPoller(sock.Raw())
	if err != nil {
		return NewConnectionFailedError(c.endpoint, err)
	}
	c.poller = poller

	log.WithFields(log.Fields{"endpoint": c.endpoint, "identity": identity}).Debug("client (re)connected")
	return nil
}

// Close releases the client's socket and poller.
func (c *Client) Close() {
	if c.poller != nil {
		c.poller.Destroy()
		c.poller = nil
	}
	if c.sock != nil {
		c.sock.Close()
		c.sock = nil
	}
}

// Send issues a REQUEST for service and blocks for the matching REPLY,
// making up to Retries attempts in total (reconnecting between attempts)
// when a single attempt times out.
func (c *Client) Send(service string, request []string) ([]string, error) {
	frame := make([]string, 0, 3+len(request))
	frame = append(frame, "", ClientHeader, service)
	frame = append(frame, request...)

	retries := c.Retries
	for retries > 0 {
		if err := c.sock.Send(toFrames(frame)); err != nil {
			return nil, NewMDPError(ErrCodeSocketError, "send failed", err)
		}

		sock, err := c.poller.Wait(int(c.Timeout / time.Millisecond))
		if err != nil {
			return nil, NewMDPError(ErrCodeSocketError, "poll failed", err)
		}
		if sock == nil {
			retries--
			log.WithField("retries_left", retries).Warn("client timed out waiting for reply")
			if retries == 0 {
				break
			}
			if err := c.connect(); err != nil {
				return nil, err
			}
			continue
		}

		frames, err := sock.RecvMessage()
		if err != nil {
			return nil, NewMDPError(ErrCodeSocketError, "recv failed", err)
		}
		msg := toStrings(frames)
		if len(msg) < 3 || msg[0] != "" {
			return nil, NewInvalidMessageError("malformed reply from broker", nil)
		}
		if msg[1] != ClientHeader {
			return nil, NewProtocolViolationError(fmt.Sprintf("unexpected header %q from broker", msg[1]), nil)
		}
		if msg[2] != service {
			return nil, NewProtocolViolationError(
				fmt.Sprintf("reply service %q does not match request service %q", msg[2], service), nil)
		}
		return msg[3:], nil
	}

	return nil, NewTimeoutError("no reply from broker", ErrTimeout)
}
