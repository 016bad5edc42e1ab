// Package metrics provides Prometheus metrics for the PWM driver and light.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smazurov/dioder/internal/events"
)

var (
	registerWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dioder",
		Subsystem: "pca9685",
		Name:      "register_writes_total",
		Help:      "Successful I2C register writes",
	}, []string{"op"})

	busErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dioder",
		Subsystem: "pca9685",
		Name:      "bus_errors_total",
		Help:      "Failed I2C transactions",
	}, []string{"op"})

	rejectedInputs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dioder",
		Subsystem: "pca9685",
		Name:      "rejected_inputs_total",
		Help:      "Out-of-range frequency, duty or channel values dropped without a write",
	}, []string{"kind"})

	channelDuty = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "dioder",
		Subsystem: "pca9685",
		Name:      "channel_duty",
		Help:      "Last duty cycle written to a channel (0-1)",
	}, []string{"channel"})

	lightOn = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "dioder",
		Subsystem: "light",
		Name:      "on",
		Help:      "1 when the light is on",
	})

	lightColor = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "dioder",
		Subsystem: "light",
		Name:      "color",
		Help:      "Current light color component (0-255)",
	}, []string{"component"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dioder",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "API requests by route template and status",
	}, []string{"method", "route", "status"})
)

// RecordRegisterWrite counts one successful register write.
func RecordRegisterWrite(op string) {
	registerWrites.WithLabelValues(op).Inc()
}

// RecordBusError counts one failed bus transaction.
func RecordBusError(op string) {
	busErrors.WithLabelValues(op).Inc()
}

// RecordRejectedInput counts an ignored out-of-range input.
func RecordRejectedInput(kind string) {
	rejectedInputs.WithLabelValues(kind).Inc()
}

// RecordHTTPRequest counts one completed API request.
func RecordHTTPRequest(method, route, status string) {
	httpRequests.WithLabelValues(method, route, status).Inc()
}

// SetChannelDuty records the duty last written to a channel.
func SetChannelDuty(channel int, duty float64) {
	channelDuty.WithLabelValues(strconv.Itoa(channel)).Set(duty)
}

// SetLightState records the adapter's on/off state and color.
func SetLightState(on bool, r, g, b uint8) {
	if on {
		lightOn.Set(1)
	} else {
		lightOn.Set(0)
	}
	lightColor.WithLabelValues("red").Set(float64(r))
	lightColor.WithLabelValues("green").Set(float64(g))
	lightColor.WithLabelValues("blue").Set(float64(b))
}

// SubscribeLightState keeps the light gauges in sync with state events.
// Returns an unsubscribe function.
func SubscribeLightState(bus *events.Bus) func() {
	return bus.Subscribe(func(e events.LightStateChangedEvent) {
		SetLightState(e.On, e.RGB[0], e.RGB[1], e.RGB[2])
	})
}

// Handler serves the default registry in Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
