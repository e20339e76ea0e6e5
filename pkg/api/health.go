package api

import (
	"context"
	"net/http"
	"time"

	"github.com/cuemby/topicgate/pkg/health"
	"github.com/cuemby/topicgate/pkg/metrics"
)

// HealthServer exposes the ambient HTTP surface: /health, /ready, /metrics.
// Readiness of "broker" is polled via a TCPChecker against the configured
// broker address; "rpc" is flipped healthy once the PubSub RPC server
// starts accepting connections.
type HealthServer struct {
	brokerCheck *health.TCPChecker
	mux         *http.ServeMux
	stopCh      chan struct{}
}

// NewHealthServer creates a health server that checks brokerAddr on a
// timer and exposes metrics.Handler() alongside it.
func NewHealthServer(brokerAddr string) *HealthServer {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", metrics.HealthHandler())
	mux.HandleFunc("/ready", metrics.ReadyHandler())
	mux.HandleFunc("/live", metrics.LivenessHandler())
	mux.Handle("/metrics", metrics.Handler())

	return &HealthServer{
		brokerCheck: health.NewTCPChecker(brokerAddr),
		mux:         mux,
		stopCh:      make(chan struct{}),
	}
}

// RunChecks starts polling the broker's TCP reachability on a timer and
// updating the "broker" component health until Stop is called. Call once
// before Start.
func (hs *HealthServer) RunChecks() {
	ticker := time.NewTicker(10 * time.Second)
	go func() {
		hs.checkBroker()
		for {
			select {
			case <-ticker.C:
				hs.checkBroker()
			case <-hs.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

func (hs *HealthServer) checkBroker() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result := hs.brokerCheck.Check(ctx)
	metrics.UpdateComponent("broker", result.Healthy, result.Message)
}

// Stop stops the periodic broker health checks.
func (hs *HealthServer) Stop() {
	close(hs.stopCh)
}

// Start starts the ambient HTTP server on addr. Blocks until the server
// stops or errors.
func (hs *HealthServer) Start(addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      hs.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server.ListenAndServe()
}

// Handler returns the HTTP handler for embedding in other servers.
func (hs *HealthServer) Handler() http.Handler {
	return hs.mux
}
