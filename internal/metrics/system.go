package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	socTemperature = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "system",
		Name:      "temperature_celsius",
		Help:      "SoC temperature reported by the thermal zone",
	}, []string{"zone"})
)

// SetTemperature sets the temperature of a thermal zone.
func SetTemperature(zone string, celsius float64) {
	socTemperature.WithLabelValues(zone).Set(celsius)
}

// DeleteTemperature removes the series for a zone.
func DeleteTemperature(zone string) {
	socTemperature.DeleteLabelValues(zone)
}
