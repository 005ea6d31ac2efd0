package gateway

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/beeper/gemini-gateway/pkg/gemini"
)

type metrics struct {
	fetches   *prometheus.CounterVec
	duration  prometheus.Histogram
	redirects prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gemini_gateway",
			Name:      "fetches_total",
			Help:      "Page lookups by outcome.",
		}, []string{"outcome"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gemini_gateway",
			Name:      "fetch_duration_seconds",
			Help:      "Time spent fetching a document, redirects included.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		redirects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gemini_gateway",
			Name:      "redirects_total",
			Help:      "Redirects followed by successful lookups.",
		}),
	}
}

var outcomeKinds = []struct {
	kind error
	name string
}{
	{gemini.ErrEmptyQuery, "empty_query"},
	{gemini.ErrBadURL, "bad_url"},
	{gemini.ErrConnectionFailed, "connection_failed"},
	{gemini.ErrDecode, "decode_error"},
	{gemini.ErrInvalidRedirect, "invalid_redirect"},
	{gemini.ErrTooManyRedirects, "too_many_redirects"},
	{gemini.ErrUnsupported, "unsupported"},
	{gemini.ErrInputRequired, "input_required"},
	{gemini.ErrUpstream, "upstream_failure"},
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	for _, k := range outcomeKinds {
		if errors.Is(err, k.kind) {
			return k.name
		}
	}
	return "other"
}
