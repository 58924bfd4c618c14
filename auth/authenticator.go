// Package auth implements the CurveZMQ authentication modes IronDomo's
// broker supports: allow-any, a directory of client public-key
// certificates, or a caller-supplied verification callback. It speaks the
// ZAP v1.0 protocol (RFC 27) directly over the inproc://zeromq.zap.01
// endpoint that goczmq's CurveZMQ server sockets consult for every
// handshake.
package auth

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	czmq "github.com/zeromq/goczmq/v4"
)

// CredentialsCallback decides whether a client presenting publicKey should
// be admitted. It is consulted once per incoming connection handshake.
type CredentialsCallback func(domain, address, publicKey string) bool

// Config selects one of the three supported authentication modes. At most
// one of CredentialsLocation and CredentialsCallback should be set; when
// neither is set the Authenticator allows any CurveZMQ client through
// (matching the original broker's CURVE_ALLOW_ANY default).
type Config struct {
	// CredentialsLocation is a directory of client public-key certificates.
	// Its file count is rechecked on every Reconcile call so dropping or
	// adding a certificate file takes effect without a broker restart.
	CredentialsLocation string

	// CredentialsCallback, when set, takes precedence over
	// CredentialsLocation and authorizes connections programmatically.
	CredentialsCallback CredentialsCallback
}

// Authenticator runs the ZAP handler for the lifetime of a broker. It is
// safe to construct with a zero Config, which allows any CurveZMQ client.
type Authenticator struct {
	cfg Config

	mu          sync.Mutex
	fileCount   int
	allowedKeys map[string]bool

	zapSock *czmq.Sock
	done    chan struct{}
	wg      sync.WaitGroup
}

// New constructs an Authenticator for cfg without starting it.
func New(cfg Config) *Authenticator {
	return &Authenticator{cfg: cfg, allowedKeys: make(map[string]bool)}
}

// Start binds the ZAP handler socket and begins answering authentication
// requests. It loads the initial certificate set (if CredentialsLocation is
// configured) before returning.
func (a *Authenticator) Start() error {
	if a.cfg.CredentialsLocation != "" {
		if err := a.Reconcile(); err != nil {
			return fmt.Errorf("auth: initial certificate load: %w", err)
		}
	}

	sock, err := czmq.NewRep("inproc://zeromq.zap.01")
	if err != nil {
		return fmt.Errorf("auth: bind zap handler: %w", err)
	}
	a.zapSock = sock
	a.done = make(chan struct{})

	a.wg.Add(1)
	go a.serve()
	return nil
}

// Stop tears down the ZAP handler socket.
func (a *Authenticator) Stop() {
	if a.done != nil {
		close(a.done)
	}
	a.wg.Wait()
	if a.zapSock != nil {
		a.zapSock.Destroy()
		a.zapSock = nil
	}
}

// Reconcile reloads the certificate directory when its file count has
// changed since the last check. The broker calls this once per heartbeat
// cycle so certificates added or revoked on disk take effect quickly
// without reparsing the directory on every single handshake.
func (a *Authenticator) Reconcile() error {
	if a.cfg.CredentialsLocation == "" {
		return nil
	}

	keys, count, err := loadCertificates(a.cfg.CredentialsLocation)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if count == a.fileCount {
		return nil
	}
	a.fileCount = count
	a.allowedKeys = keys
	log.WithFields(log.Fields{
		"location": a.cfg.CredentialsLocation,
		"files":    count,
	}).Info("reloaded curve certificates")
	return nil
}

func (a *Authenticator) isAllowed(publicKey string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.allowedKeys) == 0 && a.cfg.CredentialsLocation == "" && a.cfg.CredentialsCallback == nil {
		return true
	}
	return a.allowedKeys[publicKey]
}

func (a *Authenticator) serve() {
	defer a.wg.Done()

	poller, err := czmq.NewPoller(a.zapSock)
	if err != nil {
		log.WithError(err).Error("auth: failed to poll zap socket")
		return
	}
	defer poller.Destroy()

	for {
		select {
		case <-a.done:
			return
		default:
		}

		sock, err := poller.Wait(500)
		if err != nil {
			log.WithError(err).Error("auth: zap poll failed")
			continue
		}
		if sock == nil {
			continue
		}

		req, err := sock.RecvMessage()
		if err != nil {
			log.WithError(err).Error("auth: failed to receive zap request")
			continue
		}

		resp := a.handleRequest(req)
		if err := sock.SendMessage(resp); err != nil {
			log.WithError(err).Error("auth: failed to send zap response")
		}
	}
}

// handleRequest implements the ZAP v1.0 request/response framing:
//
//	request:  version, sequence, domain, address, identity, mechanism, [creds...]
//	response: version, sequence, status_code, status_text, user_id, metadata
func (a *Authenticator) handleRequest(req [][]byte) [][]byte {
	if len(req) < 6 {
		return zapResponse("", "400", "malformed request", "")
	}

	version := string(req[0])
	sequence := string(req[1])
	domain := string(req[2])
	address := string(req[3])
	mechanism := string(req[5])

	if mechanism != "CURVE" {
		return zapResponseSeq(version, sequence, "400", "unsupported mechanism")
	}
	if len(req) < 7 {
		return zapResponseSeq(version, sequence, "400", "missing curve public key")
	}

	publicKey := string(req[6])

	if a.cfg.CredentialsCallback != nil {
		if a.cfg.CredentialsCallback(domain, address, publicKey) {
			return zapResponseSeqUser(version, sequence, "200", "OK", publicKey)
		}
		return zapResponseSeq(version, sequence, "400", "credential rejected")
	}

	if a.isAllowed(publicKey) {
		return zapResponseSeqUser(version, sequence, "200", "OK", publicKey)
	}
	return zapResponseSeq(version, sequence, "400", "unknown key")
}

func zapResponse(version, status, text, userID string) [][]byte {
	return zapResponseSeqUser(version, "1", status, text, userID)
}

func zapResponseSeq(version, sequence, status, text string) [][]byte {
	return zapResponseSeqUser(version, sequence, status, text, "")
}

func zapResponseSeqUser(version, sequence, status, text, userID string) [][]byte {
	if version == "" {
		version = "1.0"
	}
	return [][]byte{
		[]byte(version),
		[]byte(sequence),
		[]byte(status),
		[]byte(text),
		[]byte(userID),
		[]byte(""),
	}
}
