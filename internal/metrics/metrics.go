package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/weekstatus/weekstatus/internal/event_bus"
)

type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	updatesTotal    *prometheus.CounterVec
	commandsTotal   *prometheus.CounterVec
	broadcastSends  *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		updatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_updates_total",
				Help: "Telegram updates received over the webhook",
			},
			[]string{"kind"},
		),
		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_commands_total",
				Help: "Commands and callback actions handled",
			},
			[]string{"command", "chat_type"},
		),
		broadcastSends: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_broadcast_messages_total",
				Help: "Broadcast deliveries by outcome",
			},
			[]string{"status"},
		),
	}
	registry.MustRegister(m.requestsTotal, m.requestDuration, m.updatesTotal, m.commandsTotal, m.broadcastSends)
	return m
}

// Subscribe feeds command and broadcast counters from the event bus.
func (m *Metrics) Subscribe(bus *event_bus.EventBus) {
	event_bus.SubscribeTyped[event_bus.CommandUsed](bus, event_bus.CommandUsedType,
		func(e event_bus.EventT[event_bus.CommandUsed]) error {
			m.commandsTotal.WithLabelValues(e.Data.Command, e.Data.ChatType).Inc()
			return nil
		})
	event_bus.SubscribeTyped[event_bus.BroadcastFinished](bus, event_bus.BroadcastFinishedType,
		func(e event_bus.EventT[event_bus.BroadcastFinished]) error {
			m.broadcastSends.WithLabelValues("sent").Add(float64(e.Data.Succeeded))
			m.broadcastSends.WithLabelValues("failed").Add(float64(e.Data.Failed))
			return nil
		})
}

func (m *Metrics) UpdateReceived(kind string) {
	m.updatesTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware records request counts and latency labelled with the matched route template.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, req)

		route := "unmatched"
		if current := mux.CurrentRoute(req); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.requestsTotal.WithLabelValues(req.Method, route, strconv.Itoa(rec.status)).Inc()
		m.requestDuration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
	})
}
