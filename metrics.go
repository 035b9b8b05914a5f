package mailbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailbox_client_commands_total",
			Help: "IMAP operations issued by sessions, by operation and result.",
		},
		[]string{
			"op",     // connect, select, list, count, fetch, part, search, move, expunge, send
			"result", // ok, error
		},
	)
	metricFetchedMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mailbox_client_fetched_messages_total",
			Help: "Message records returned by fetches.",
		},
	)
	metricAttachmentBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mailbox_client_attachment_bytes_total",
			Help: "Decoded attachment payload bytes.",
		},
	)
)

// observe counts one operation.
func observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metricCommands.WithLabelValues(op, result).Inc()
}
