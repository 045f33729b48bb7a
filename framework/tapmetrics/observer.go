// Package tapmetrics exposes the progress of a tapzero run as Prometheus metrics.
package tapmetrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/launchdarkly/tap-test-harness/framework/tapzero"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const MetricsNamespace = "tapzero"

const (
	resultPass  = "pass"
	resultFail  = "fail"
	resultError = "error"
)

// Observer is a tapzero.Observer that counts assertions and tests and times each test.
type Observer struct {
	assertions *prometheus.CounterVec
	tests      *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	now        func() time.Time
	lock       sync.Mutex
	startedAt  time.Time
}

// NewObserver registers the metrics with reg. Registering two observers with the same
// registry panics, as with any duplicate Prometheus collector.
func NewObserver(reg prometheus.Registerer) *Observer {
	factory := promauto.With(reg)
	return &Observer{
		assertions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "assertions_total",
			Help:      "Count of assertions by operator and result",
		}, []string{
			"operator",
			"result",
		}),
		tests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "tests_total",
			Help:      "Count of finished tests by result",
		}, []string{
			"result",
		}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "test_duration_seconds",
			Help:      "Time from the start of a test until its body and any awaited work finished",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{
			"result",
		}),
		now: time.Now,
	}
}

func (o *Observer) TestStarted(string) {
	o.lock.Lock()
	o.startedAt = o.now()
	o.lock.Unlock()
}

func (o *Observer) AssertionRecorded(_ string, a tapzero.Assertion) {
	result := resultPass
	if !a.Passed {
		result = resultFail
	}
	o.assertions.WithLabelValues(a.Operator, result).Inc()
}

func (o *Observer) TestFinished(r tapzero.TestResult) {
	result := resultPass
	switch {
	case r.Err != nil:
		result = resultError
	case !r.OK():
		result = resultFail
	}
	o.tests.WithLabelValues(result).Inc()

	o.lock.Lock()
	elapsed := o.now().Sub(o.startedAt)
	o.lock.Unlock()
	o.duration.WithLabelValues(result).Observe(elapsed.Seconds())
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
