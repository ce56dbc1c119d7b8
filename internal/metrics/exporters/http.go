// Package exporters exposes the Prometheus registry over HTTP.
package exporters

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxScrapes bounds concurrent scrapes; the Pi Zero class boards this runs
// on have one core shared with audio decoding.
const maxScrapes = 2

// HTTPHandler serves every promauto-registered metric. Gather errors are
// reported in the response instead of failing the scrape, and the handler
// counts its own requests.
func HTTPHandler() http.Handler {
	handler := promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorHandling:       promhttp.ContinueOnError,
		MaxRequestsInFlight: maxScrapes,
		EnableOpenMetrics:   true,
	})
	return promhttp.InstrumentMetricHandler(prometheus.DefaultRegisterer, handler)
}
