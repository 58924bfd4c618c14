// Command broker runs an IronDomo message broker.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nelkinda/health-go"
	log "github.com/sirupsen/logrus"

	"github.com/waterviewsrl/IronDomo/auth"
	"github.com/waterviewsrl/IronDomo/config"
	"github.com/waterviewsrl/IronDomo/logging"
	"github.com/waterviewsrl/IronDomo/mdp"
	"github.com/waterviewsrl/IronDomo/transport"
)

func main() {
	cfg := config.GetBrokerConfig()
	logging.Initialize(cfg.Log)

	brokerCfg := mdp.Config{
		PlainEndpoint:     cfg.PlainEndpoint,
		EncryptedEndpoint: cfg.EncryptedEndpoint,
		PublishEndpoint:   cfg.PublishEndpoint,
	}

	if cfg.EncryptedEndpoint != "" {
		brokerCfg.CurveKeys = &transport.CurveKeyPair{
			Public: cfg.Curve.PublicKey,
			Secret: cfg.Curve.SecretKey,
		}
		brokerCfg.Authenticator = auth.New(auth.Config{
			CredentialsLocation: cfg.Curve.CredentialsLocation,
		})
	}

	broker, err := mdp.NewBroker(brokerCfg)
	if err != nil {
		log.WithError(err).Fatal("failed to start broker")
	}
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}

	wg.Add(3)
	go runBroker(ctx, wg, broker)
	go runErrorMonitor(ctx, wg, broker)
	go runHealth(ctx, wg, cfg.HealthPort)

	SetStatus("running")
	log.WithField("service", cfg.Service.ID).Info("broker started")

	termChan := make(chan os.Signal, 1)
	signal.Notify(termChan, syscall.SIGINT, syscall.SIGTERM)
	<-termChan

	SetStatus("stopping")
	log.Info("broker terminating")
	cancel()
	wg.Wait()
	log.Info("broker exiting")
}

// runErrorMonitor drains broker.ErrorChannel so routing errors surface on
// the /status endpoint instead of silently filling the channel's buffer.
func runErrorMonitor(ctx context.Context, wg *sync.WaitGroup, broker *mdp.Broker) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-broker.ErrorChannel:
			SetLastError(err)
		}
	}
}

func runBroker(ctx context.Context, wg *sync.WaitGroup, broker *mdp.Broker) {
	defer wg.Done()

	done := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		errCh <- broker.Run(done)
	}()

	select {
	case <-ctx.Done():
		close(done)
		<-errCh
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("broker run loop exited with an error")
		}
	}
}

func runHealth(ctx context.Context, wg *sync.WaitGroup, port int) {
	defer wg.Done()

	h := health.New(health.Health{
		Version:   "1",
		ReleaseID: "1.0.0",
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.Handler)
	mux.HandleFunc("/status", statusHandler)

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("health server failed")
		}
	}()

	<-ctx.Done()
	_ = srv.Close()
}

func statusHandler(w http.ResponseWriter, _ *http.Request) {
	lastErr := ""
	if err := GetLastError(); err != nil {
		lastErr = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":%q,"error_count":%d,"last_error":%q}`,
		GetStatus(), GetErrorCount(), lastErr)
}
