package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_active_connections",
			Help: "Number of websocket connections currently registered",
		},
	)

	messagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Total number of messages persisted through the pipeline",
		},
	)

	eventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_events_received_total",
			Help: "Inbound websocket events by type",
		},
		[]string{"type"},
	)

	notificationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_offline_notifications_total",
			Help: "Notifications created for recipients who were offline",
		},
	)

	chatsRestored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_restorations_total",
			Help: "Hidden chats restored by new activity",
		},
	)
)
