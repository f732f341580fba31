package investigation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	persistWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "probedeck_persist_writes_total",
		Help: "Debounced state writes by storage key.",
	}, []string{"key"})

	decodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "probedeck_decode_failures_total",
		Help: "Stored payloads dropped because they failed to decode.",
	})

	chatMerged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "probedeck_chat_messages_merged_total",
		Help: "Chat messages accepted into the active investigation.",
	})

	sessionsReplaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "probedeck_agent_sessions_replaced_total",
		Help: "Per-agent session transcripts replaced by feed updates.",
	})

	investigationsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "probedeck_investigations_started_total",
		Help: "Investigations started, by origin (template or custom).",
	}, []string{"origin"})
)
