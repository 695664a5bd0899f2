// Package metrics exposes station counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Skip reasons.
const (
	ReasonNoFix      = "no_fix"
	ReasonGPSError   = "gps_error"
	ReasonTopicAck   = "topic_ack"
	ReasonTruncated  = "truncated"
	ReasonMalformed  = "malformed"
	ReasonBuildError = "build_error"
)

var (
	Transmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "v2x_wsmp_transmitted_total",
		Help: "WSMP messages handed to the transport.",
	})
	TransmitErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "v2x_wsmp_transmit_errors_total",
		Help: "WSMP messages the transport failed to send.",
	})
	Received = promauto.NewCounter(prometheus.CounterOpts{
		Name: "v2x_wsmp_received_total",
		Help: "Messages received from the subscription, including topic acknowledgements.",
	})
	ReceiveErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "v2x_wsmp_receive_errors_total",
		Help: "Failed or timed out receives.",
	})
	Skipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "v2x_cycles_skipped_total",
		Help: "Cycles or messages skipped, by reason.",
	}, []string{"reason"})
	Classifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "v2x_classifications_total",
		Help: "Classified messages by result.",
	}, []string{"result"})
	Heading = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "v2x_heading_degrees",
		Help: "Last computed heading.",
	})
	DistanceToReference = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "v2x_reference_distance_km",
		Help: "Last distance between the station and the reference point.",
	})
	CycleLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "v2x_cycle_latency_seconds",
		Help:    "Duration of a publish cycle or message handling.",
		Buckets: prometheus.DefBuckets,
	})
)

// ObserveCycle records the latency since start.
func ObserveCycle(start time.Time) {
	CycleLatency.Observe(time.Since(start).Seconds())
}

// Classified counts a classification result.
func Classified(detected bool) {
	if detected {
		Classifications.WithLabelValues("detected").Inc()
	} else {
		Classifications.WithLabelValues("not_detected").Inc()
	}
}

// Handler serves /metrics and /healthz.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Server is a Runnable serving metrics on Addr.
type Server struct {
	Addr string
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.Addr, Handler: Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	glog.Infof("metrics on %s", s.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}
