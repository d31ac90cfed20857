package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_connected_clients",
			Help: "Currently joined sessions",
		},
	)

	joinsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_joins_total",
			Help: "Total successful joins",
		},
	)

	messagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_messages_total",
			Help: "Total room messages accepted",
		},
		[]string{"kind"}, // "text" or "file"
	)

	privateMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_private_messages_total",
			Help: "Total private messages delivered",
		},
	)

	reactionTogglesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_reaction_toggles_total",
			Help: "Total reaction toggles applied",
		},
	)

	typingSignalsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_typing_signals_total",
			Help: "Total typing signals forwarded",
		},
	)

	roomSwitchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_room_switches_total",
			Help: "Total completed room switches",
		},
	)

	droppedEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_dropped_events_total",
			Help: "Inbound events dropped without effect",
		},
		[]string{"reason"}, // "not_joined", "duplicate_join", "room_not_found", "recipient_unavailable", "unknown_message"
	)
)
