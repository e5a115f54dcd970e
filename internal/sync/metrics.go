// ABOUTME: Prometheus instruments for outbox draining.
// ABOUTME: Registered once on the default registry and served by ServeMetrics.
package sync

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pushedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lift",
		Subsystem: "outbox",
		Name:      "mutations_pushed_total",
		Help:      "Number of outbox mutations applied to the remote and cleared.",
	})

	failedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lift",
		Subsystem: "outbox",
		Name:      "mutations_failed_total",
		Help:      "Number of outbox mutations the remote rejected or could not be reached for.",
	})

	heldCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lift",
		Subsystem: "outbox",
		Name:      "mutations_held_total",
		Help:      "Number of outbox mutations held back behind an earlier failure for the same record.",
	})

	pendingGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "lift",
		Subsystem: "outbox",
		Name:      "pending_mutations",
		Help:      "Outbox entries remaining after the most recent drain.",
	})

	drainDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "lift",
		Subsystem: "outbox",
		Name:      "drain_duration_seconds",
		Help:      "Time spent reading, applying and clearing one outbox batch.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	})
)

func init() {
	prometheus.MustRegister(pushedCounter, failedCounter, heldCounter, pendingGauge, drainDuration)
}

// ServeMetrics exposes /metrics on addr until ctx is cancelled.
func ServeMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
