// Package metrics exposes relay activity as Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vovakirdan/carechat-server/internal/core"
)

const namespace = "carechat"

// Relay implements core.Observer with Prometheus collectors.
type Relay struct {
	registry *prometheus.Registry

	participants   *prometheus.GaugeVec
	joins          *prometheus.CounterVec
	messages       *prometheus.CounterVec
	deliveries     *prometheus.CounterVec
	eventsDropped  *prometheus.CounterVec
	inboundDropped *prometheus.CounterVec
}

var _ core.Observer = (*Relay)(nil)

// New builds the collectors on a dedicated registry, together with Go runtime collectors.
func New() *Relay {
	m := &Relay{
		registry: prometheus.NewRegistry(),
		participants: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "participants",
			Help:      "Currently joined participants by role.",
		}, []string{"role"}),
		joins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "joins_total",
			Help:      "Accepted join events by role.",
		}, []string{"role"}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_routed_total",
			Help:      "Chat messages routed by sender role.",
		}, []string{"sender_role"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "message_deliveries_total",
			Help:      "Message copies handed to client buffers, self echo included.",
		}, []string{"sender_role"}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Outbound events dropped because a client buffer was full.",
		}, []string{"event"}),
		inboundDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_dropped_total",
			Help:      "Inbound events dropped without effect.",
		}, []string{"reason"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.participants,
		m.joins,
		m.messages,
		m.deliveries,
		m.eventsDropped,
		m.inboundDropped,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Relay) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ParticipantJoined implements core.Observer.
func (m *Relay) ParticipantJoined(role core.Role) {
	m.participants.WithLabelValues(role.String()).Inc()
	m.joins.WithLabelValues(role.String()).Inc()
}

// ParticipantLeft implements core.Observer.
func (m *Relay) ParticipantLeft(role core.Role) {
	m.participants.WithLabelValues(role.String()).Dec()
}

// MessageRouted implements core.Observer.
func (m *Relay) MessageRouted(sender core.Role, deliveries int) {
	m.messages.WithLabelValues(sender.String()).Inc()
	m.deliveries.WithLabelValues(sender.String()).Add(float64(deliveries))
}

// EventDropped implements core.Observer.
func (m *Relay) EventDropped(kind core.EventKind) {
	m.eventsDropped.WithLabelValues(kind.String()).Inc()
}

// InboundDropped implements core.Observer.
func (m *Relay) InboundDropped(reason string) {
	m.inboundDropped.WithLabelValues(reason).Inc()
}

// InboundRateLimited counts inbound events rejected by the transport rate limiter.
func (m *Relay) InboundRateLimited() {
	m.InboundDropped("rate_limited")
}
