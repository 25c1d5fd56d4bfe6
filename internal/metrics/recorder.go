package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nao1215/depthscan/internal/model"
)

// Namespace prefixes every metric name.
const Namespace = "depthscan"

// Transport error kinds used as the kind label of the errors counter.
const (
	ErrorTimeout  = "timeout"
	ErrorCanceled = "canceled"
	ErrorDNS      = "dns"
	ErrorRefused  = "refused"
	ErrorOther    = "other"
)

// Recorder holds the crawl metrics. Safe for concurrent use.
type Recorder struct {
	registry *prometheus.Registry

	nodesTotal    *prometheus.CounterVec
	findingsTotal *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	flagsTotal    prometheus.Counter
	layerDuration prometheus.Histogram
	layerNodes    *prometheus.GaugeVec
	nodeDuration  prometheus.Histogram
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.nodesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "nodes_total",
			Help:      "Total number of processed nodes by outcome",
		},
		[]string{"depth", "outcome"},
	)
	r.findingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "findings_total",
			Help:      "Total number of findings by signature",
		},
		[]string{"signature"},
	)
	r.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "transport_errors_total",
			Help:      "Total number of fetch transport errors by kind",
		},
		[]string{"kind"},
	)
	r.flagsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "flags_total",
		Help:      "Total number of flag tokens collected by the renderer",
	})
	r.layerDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "layer_duration_seconds",
		Help:      "Time taken to resolve one depth layer",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})
	r.layerNodes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "layer_nodes",
			Help:      "Number of nodes in each resolved layer",
		},
		[]string{"depth"},
	)
	r.nodeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "node_duration_seconds",
		Help:      "Time taken to process one node",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
	})

	r.registry.MustRegister(
		r.nodesTotal,
		r.findingsTotal,
		r.errorsTotal,
		r.flagsTotal,
		r.layerDuration,
		r.layerNodes,
		r.nodeDuration,
	)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// NodeDone records a resolved node.
func (r *Recorder) NodeDone(node *model.CrawlNode) {
	outcome := "ok"
	if node.FetchErr != nil {
		outcome = "error"
		r.errorsTotal.WithLabelValues(ErrorKind(node.FetchErr)).Inc()
	}
	r.nodesTotal.WithLabelValues(depthLabel(node.Depth), outcome).Inc()
	for _, f := range node.Findings {
		r.findingsTotal.WithLabelValues(f.Signature).Inc()
	}
	r.flagsTotal.Add(float64(len(node.Flags())))
	if !node.StartedAt.IsZero() && node.FinishedAt.After(node.StartedAt) {
		r.nodeDuration.Observe(node.FinishedAt.Sub(node.StartedAt).Seconds())
	}
}

// LayerDone records a resolved layer.
func (r *Recorder) LayerDone(layer *model.Layer) {
	r.layerDuration.Observe(layer.Duration.Seconds())
	r.layerNodes.WithLabelValues(depthLabel(layer.Depth)).Set(float64(len(layer.Nodes)))
}

// ErrorKind classifies a transport error.
func ErrorKind(err error) string {
	var (
		dnsErr *net.DNSError
		netErr net.Error
	)
	switch {
	case errors.Is(err, context.Canceled):
		return ErrorCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTimeout
	case errors.As(err, &dnsErr):
		return ErrorDNS
	case errors.As(err, &netErr) && netErr.Timeout():
		return ErrorTimeout
	case strings.Contains(strings.ToLower(err.Error()), "connection refused"):
		return ErrorRefused
	default:
		return ErrorOther
	}
}

func depthLabel(depth int) string {
	return strconv.Itoa(depth)
}
