package notify

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	messagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatsapp_messages_total",
			Help: "Outbound WhatsApp messages by provider, strategy and result.",
		},
		[]string{"provider", "strategy", "result"},
	)

	fallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatsapp_template_fallbacks_total",
			Help: "Template sends that failed and fell back to free text.",
		},
		[]string{"provider"},
	)

	sendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "whatsapp_send_duration_seconds",
			Help:    "Duration of one vendor call in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "strategy"},
	)

	excludedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "whatsapp_recipients_excluded_total",
			Help: "Recipients skipped because they have no phone number.",
		},
	)
)

func init() {
	prometheus.MustRegister(messagesTotal, fallbacksTotal, sendDuration, excludedTotal)
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
