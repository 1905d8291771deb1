package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const DefaultNamespace = "arbbot"

// Metrics groups the collectors of every component
type Metrics struct {
	Fee       *FeeMetrics
	Quotes    *QuoteMetrics
	Loop      *LoopMetrics
	Execution *ExecutionMetrics
	FlashLoan *FlashLoanMetrics
}

// New creates all metric groups on reg. A nil registerer yields unregistered
// collectors, which is what tests want.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Fee:       NewFeeMetrics(factory, namespace),
		Quotes:    NewQuoteMetrics(factory, namespace),
		Loop:      NewLoopMetrics(factory, namespace),
		Execution: NewExecutionMetrics(factory, namespace),
		FlashLoan: NewFlashLoanMetrics(factory, namespace),
	}
}

// NewNop returns unregistered collectors
func NewNop() *Metrics {
	return New(nil, DefaultNamespace)
}

type FeeMetrics struct {
	GasPriceGwei prometheus.Gauge
	Samples      prometheus.Counter
	Errors       prometheus.Counter
}

func NewFeeMetrics(factory promauto.Factory, namespace string) *FeeMetrics {
	return &FeeMetrics{
		GasPriceGwei: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fee",
			Name:      "gas_price_gwei",
			Help:      "Latest sampled network gas price in gwei",
		}),
		Samples: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fee",
			Name:      "samples_total",
			Help:      "Total number of successful gas price samples",
		}),
		Errors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fee",
			Name:      "errors_total",
			Help:      "Total number of failed gas price samples",
		}),
	}
}

type QuoteMetrics struct {
	Requests      *prometheus.CounterVec
	Failures      *prometheus.CounterVec
	BuildFailures *prometheus.CounterVec
	Latency       *prometheus.HistogramVec
}

func NewQuoteMetrics(factory promauto.Factory, namespace string) *QuoteMetrics {
	return &QuoteMetrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quote",
			Name:      "requests_total",
			Help:      "Total number of quote requests by service",
		}, []string{"service"}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quote",
			Name:      "failures_total",
			Help:      "Total number of failed quote requests by service and kind",
		}, []string{"service", "kind"}),
		BuildFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quote",
			Name:      "build_failures_total",
			Help:      "Total number of failed swap payload builds by service",
		}, []string{"service"}),
		Latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "quote",
			Name:      "latency_seconds",
			Help:      "Quote request latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		}, []string{"service"}),
	}
}

type LoopMetrics struct {
	Iterations    prometheus.Counter
	Attempts      *prometheus.CounterVec
	Opportunities *prometheus.CounterVec
	State         prometheus.Gauge
}

func NewLoopMetrics(factory promauto.Factory, namespace string) *LoopMetrics {
	return &LoopMetrics{
		Iterations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "iterations_total",
			Help:      "Total number of loop iterations",
		}),
		Attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "attempts_total",
			Help:      "Total number of detection attempts by direction",
		}, []string{"direction"}),
		Opportunities: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "opportunities_total",
			Help:      "Total number of accepted opportunities by direction",
		}, []string{"direction"}),
		State: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "state",
			Help:      "Current loop state (0 scanning, 1 executing, 2 stopped)",
		}),
	}
}

type ExecutionMetrics struct {
	Executions   *prometheus.CounterVec
	GasEstimate  prometheus.Histogram
	WaitDuration prometheus.Histogram
}

func NewExecutionMetrics(factory promauto.Factory, namespace string) *ExecutionMetrics {
	return &ExecutionMetrics{
		Executions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "total",
			Help:      "Total number of execution requests by outcome",
		}, []string{"status"}),
		GasEstimate: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "gas_estimate",
			Help:      "Estimated gas per arbitrage transaction",
			Buckets:   prometheus.ExponentialBuckets(21000, 2, 10),
		}),
		WaitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "receipt_wait_seconds",
			Help:      "Time spent waiting for the transaction to be mined",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

type FlashLoanMetrics struct {
	Capacity *prometheus.GaugeVec
	Errors   prometheus.Counter
}

func NewFlashLoanMetrics(factory promauto.Factory, namespace string) *FlashLoanMetrics {
	return &FlashLoanMetrics{
		Capacity: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "flashloan",
			Name:      "capacity",
			Help:      "Latest flash loan capacity per token in whole tokens",
		}, []string{"token"}),
		Errors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "flashloan",
			Name:      "errors_total",
			Help:      "Total number of failed capacity reads",
		}),
	}
}

// Serve exposes gatherer on addr until ctx is done
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
