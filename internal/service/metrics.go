package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reviewWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviews_writes_total",
			Help: "Review state transitions by action",
		},
		[]string{"action"},
	)

	moderationFlagsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviews_flags_total",
			Help: "Flags stored on reviews, by origin",
		},
		[]string{"origin"},
	)

	notificationFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reviews_notification_failures_total",
			Help: "Notifications that could not be delivered",
		},
	)
)
