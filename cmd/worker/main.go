// Command worker runs a generic IronDomo worker that echoes every request
// it receives back to the caller, useful for exercising a broker deployment
// end to end.
package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/waterviewsrl/IronDomo/config"
	"github.com/waterviewsrl/IronDomo/logging"
	"github.com/waterviewsrl/IronDomo/mdp"
	"github.com/waterviewsrl/IronDomo/transport"
)

func main() {
	cfg := config.GetWorkerConfig()
	logging.Initialize(cfg.Log)

	var keys *transport.CurveKeyPair
	if cfg.Curve.PublicKey != "" {
		keys = &transport.CurveKeyPair{Public: cfg.Curve.PublicKey, Secret: cfg.Curve.SecretKey}
	}

	worker, err := mdp.NewWorker(cfg.Endpoint, cfg.Service, keys, cfg.ServerKey)
	if err != nil {
		log.WithError(err).Fatal("failed to connect worker")
	}
	defer worker.Close()

	termChan := make(chan os.Signal, 1)
	signal.Notify(termChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-termChan
		log.Info("worker terminating")
		worker.Shutdown()
	}()

	log.WithField("service", cfg.Service).Info("worker started")

	var reply []string
	for {
		request, err := worker.Recv(reply)
		if err != nil {
			log.WithError(err).Error("worker recv failed")
			continue
		}
		if request == nil {
			break
		}

		log.WithField("request", request).Debug("handling request")
		reply = []string{strings.Join(request, " ")}
	}

	log.Info("worker exiting")
}
