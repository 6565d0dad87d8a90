package monitor

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	tekscope "github.com/luhtfiimanal/go-tekscope"
)

// Monitor exports acquisition metrics. It implements tekscope.Observer.
type Monitor struct {
	Acquisitions *prometheus.CounterVec
	Failures     *prometheus.CounterVec
	FrameBytes   prometheus.Counter
	Duration     prometheus.Histogram

	gatherer prometheus.Gatherer
	log      logrus.FieldLogger
}

// NewMonitor creates the collectors and registers them with reg.
func NewMonitor(reg *prometheus.Registry, log logrus.FieldLogger) *Monitor {
	m := &Monitor{
		Acquisitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tekscope_acquisitions_total",
				Help: "Completed curve acquisitions",
			},
			[]string{"source", "width"},
		),
		Failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tekscope_acquisition_failures_total",
				Help: "Failed acquisitions by the step that failed",
			},
			[]string{"state"},
		),
		FrameBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tekscope_frame_bytes_total",
			Help: "Curve frame bytes received",
		}),
		// Curve transfers at 9600 baud take seconds, not milliseconds.
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tekscope_transfer_duration_seconds",
			Help:    "Time from CURVE? to the end of the frame",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		gatherer: reg,
		log:      log,
	}

	reg.MustRegister(m.Acquisitions, m.Failures, m.FrameBytes, m.Duration)
	return m
}

func (m *Monitor) AcquisitionCompleted(source string, width tekscope.SampleWidth, frameBytes int, elapsed time.Duration) {
	m.Acquisitions.WithLabelValues(source, strconv.Itoa(int(width))).Inc()
	m.FrameBytes.Add(float64(frameBytes))
	m.Duration.Observe(elapsed.Seconds())
}

func (m *Monitor) AcquisitionFailed(state tekscope.State, err error) {
	m.Failures.WithLabelValues(state.String()).Inc()
}

// Handler serves /metrics and /health.
func (m *Monitor) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

// StartMetricsServer serves Handler on addr in the background. Cancel ctx to stop it.
func (m *Monitor) StartMetricsServer(ctx context.Context, addr string) {
	srv := &http.Server{Addr: addr, Handler: m.Handler()}
	m.log.Infof("metrics server listening on %s", addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.log.Errorf("metrics server: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()
}
