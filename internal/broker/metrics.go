package broker

import "github.com/prometheus/client_golang/prometheus"

var (
	subsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "board_subscribers",
		Help: "active stream subscribers across all rooms",
	})
	roomsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "board_rooms",
		Help: "rooms with at least one subscriber",
	})
	publishCtr = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "board_snapshots_published_total",
		Help: "snapshots published to the broker",
	})
	dropsCtr = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "board_dropped_deliveries_total",
		Help: "deliveries dropped due to a full subscriber buffer",
	})
)

func init() { prometheus.MustRegister(subsGauge, roomsGauge, publishCtr, dropsCtr) }
