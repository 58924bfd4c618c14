package transport

import (
	log "github.com/sirupsen/logrus"
	czmq "github.com/zeromq/goczmq/v4"
)

// startMonitor attaches a CZMQ socket monitor to s and logs transport
// events (connect, accept, disconnect, bind failures) on a background
// goroutine until s.Close is called.
func (s *Socket) startMonitor() {
	monitor := czmq.NewMonitor(s.sock)

	_ = monitor.Listen("CONNECTED")
	_ = monitor.Listen("CONNECT_DELAYED")
	_ = monitor.Listen("CONNECT_RETRIED")
	_ = monitor.Listen("LISTENING")
	_ = monitor.Listen("BIND_FAILED")
	_ = monitor.Listen("ACCEPTED")
	_ = monitor.Listen("ACCEPT_FAILED")
	_ = monitor.Listen("CLOSED")
	_ = monitor.Listen("CLOSE_FAILED")
	_ = monitor.Listen("DISCONNECTED")
	_ = monitor.Listen("MONITOR_STOPPED")
	_ = monitor.Start()

	fields := log.Fields{"role": s.role.String(), "endpoint": s.endpoint}
	done := s.done

	go func() {
		defer monitor.Destroy()

		poller, err := czmq.NewPoller(monitor.Socket())
		if err != nil {
			log.WithFields(fields).WithError(err).Error("failed to poll monitor socket")
			return
		}
		defer poller.Destroy()

		for {
			select {
			case <-done:
				return
			default:
			}

			sock, err := poller.Wait(500)
			if err != nil {
				log.WithFields(fields).WithError(err).Error("monitor poll failed")
				continue
			}
			if sock == nil {
				continue
			}

			msg, err := sock.RecvMessage()
			if err != nil || len(msg) < 1 {
				continue
			}

			log.WithFields(fields).WithField("event", string(msg[0])).Debug("transport event")
		}
	}()
}
