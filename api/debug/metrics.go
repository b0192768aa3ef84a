package debug

import (
	"net/http"
	"net/http/pprof"

	gometrics "github.com/rcrowley/go-metrics"

	"github.com/fjl/memsize/memsizeui"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the process-wide go-metrics registry every package in
// this repo registers its meters/counters into, the same role the
// teacher's storage/database wrappers give metrics.DefaultRegistry.
var Registry = gometrics.NewRegistry()

// Memsize is the live heap inspector mounted at /debug/memsize;
// callers Add named roots to it (the block pool, the queue registry)
// the same way the teacher's cmd/utils/nodecmd wires
// debug.Memsize.Add("node", stack).
var Memsize memsizeui.Handler

func registerPProfHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
}

func registerMemsizeHandler(mux *http.ServeMux) {
	mux.Handle("/debug/memsize/", http.StripPrefix("/debug/memsize", &Memsize))
}

// registerMetricsHandler exposes /debug/metrics backed by a
// prometheus.Registry whose sole collector translates every gauge,
// counter, and meter presently registered in Registry (go-metrics)
// into the prometheus wire format on each scrape, per SPEC_FULL.md's
// "translating the same counters" metrics plan.
func registerMetricsHandler(mux *http.ServeMux) {
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(goMetricsCollector{Registry})
	mux.Handle("/debug/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
}

// goMetricsCollector adapts a gometrics.Registry to prometheus.Collector.
type goMetricsCollector struct {
	registry gometrics.Registry
}

func (goMetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	// Intentionally unchecked: this collector's metric set is dynamic
	// (whatever packages have registered by scrape time), so it is
	// declared unchecked via the Collect-only contract below.
}

func (c goMetricsCollector) Collect(ch chan<- prometheus.Metric) {
	c.registry.Each(func(name string, i interface{}) {
		switch m := i.(type) {
		case gometrics.Counter:
			ch <- prometheus.MustNewConstMetric(
				prometheus.NewDesc(sanitizeMetricName(name), name, nil, nil),
				prometheus.CounterValue, float64(m.Count()))
		case gometrics.Gauge:
			ch <- prometheus.MustNewConstMetric(
				prometheus.NewDesc(sanitizeMetricName(name), name, nil, nil),
				prometheus.GaugeValue, float64(m.Value()))
		case gometrics.Meter:
			snap := m.Snapshot()
			ch <- prometheus.MustNewConstMetric(
				prometheus.NewDesc(sanitizeMetricName(name+"_rate1"), name+" one-minute rate", nil, nil),
				prometheus.GaugeValue, snap.Rate1())
		case gometrics.Timer:
			snap := m.Snapshot()
			ch <- prometheus.MustNewConstMetric(
				prometheus.NewDesc(sanitizeMetricName(name+"_mean_ns"), name+" mean duration in ns", nil, nil),
				prometheus.GaugeValue, snap.Mean())
		}
	})
}

func sanitizeMetricName(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			out[i] = c
		default:
			out[i] = '_'
		}
	}
	return string(out)
}
