// Package mdp implements the IronDomo request/reply broker protocol: a
// Majordomo-style (ZeroMQ RFC 7) message exchange between named-service
// workers and the clients that call them, mediated by a single broker.
package mdp

import "time"

// Protocol header frames. Every message arriving on a router endpoint
// starts, after the sender identity and empty delimiter, with one of these
// two strings identifying whether it came from a client or a worker.
const (
	ClientHeader = "IDPC01"
	WorkerHeader = "IDPW01"
)

// Command frames carried in the frame immediately following the header.
// REQUEST-VIA-ENCRYPTED/REPLY-VIA-ENCRYPTED let a worker that only speaks
// one transport tell the broker which endpoint a reply belongs on.
const (
	Ready               = string(rune(0x01))
	Request             = string(rune(0x02))
	Reply               = string(rune(0x03))
	Heartbeat           = string(rune(0x04))
	Disconnect          = string(rune(0x05))
	RequestViaEncrypted = string(rune(0x06))
	ReplyViaEncrypted   = string(rune(0x07))
)

var commandNames = map[string]string{
	Ready:               "READY",
	Request:             "REQUEST",
	Reply:               "REPLY",
	Heartbeat:           "HEARTBEAT",
	Disconnect:          "DISCONNECT",
	RequestViaEncrypted: "REQUEST-VIA-ENCRYPTED",
	ReplyViaEncrypted:   "REPLY-VIA-ENCRYPTED",
}

// Heartbeat tuning. HeartbeatLiveness is the number of missed heartbeat
// intervals tolerated before a worker is considered dead.
const (
	HeartbeatLiveness = 3
	HeartbeatInterval = 2500 * time.Millisecond
	HeartbeatExpiry   = HeartbeatInterval * HeartbeatLiveness
)

// Management service (MMI) namespace and endpoints, handled entirely inside
// the broker and never dispatched to a worker.
const (
	MMINamespace = "mmi."
	MMIService   = "mmi.service"
	MMIServices  = "mmi.services"
	MMIWorkers   = "mmi.workers"
)

// MMI response codes, HTTP-flavoured as the original protocol defines them.
const (
	MMICodeOK             = "200"
	MMICodeNotFound       = "404"
	MMICodeNotImplemented = "501"
)

// Transport identifies which of the broker's two router endpoints a
// message arrived on, or must be sent on.
type Transport int

const (
	TransportPlain Transport = iota
	TransportEncrypted
)

func (t Transport) String() string {
	if t == TransportEncrypted {
		return "encrypted"
	}
	return "plain"
}
