package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EventsTotal counts accepted inbound websocket events by type.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "easel_ws_events_total",
		Help: "Inbound websocket events by type.",
	}, []string{"type"})

	// EventsRejected counts events refused at the broadcaster boundary.
	EventsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "easel_ws_events_rejected_total",
		Help: "Inbound events rejected before reaching the board registry.",
	}, []string{"reason"})

	// SendsDropped counts outbound messages dropped because a client's send
	// buffer was full.
	SendsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "easel_ws_sends_dropped_total",
		Help: "Outbound messages dropped due to a full client buffer.",
	})

	ActiveBoards = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "easel_active_boards",
		Help: "Boards with at least one joined session.",
	})

	ActiveClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "easel_active_clients",
		Help: "Live websocket connections.",
	})

	// SnapshotSaves counts persistence bridge saves by outcome.
	SnapshotSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "easel_snapshot_saves_total",
		Help: "Board snapshot saves by outcome.",
	}, []string{"status"})
)

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
