package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// lotSnapshotter is satisfied by *parking.InstrumentedParkingLot.
type lotSnapshotter interface {
	Snapshot() (capacity, occupied int, ok bool)
}

// lotCollector exports the lot's current size at scrape time. Nothing is
// reported before the lot is created.
type lotCollector struct {
	lot lotSnapshotter

	capacity *prometheus.Desc
	occupied *prometheus.Desc
	free     *prometheus.Desc
}

func newLotCollector(lot lotSnapshotter) *lotCollector {
	return &lotCollector{
		lot: lot,
		capacity: prometheus.NewDesc("parking_lot_capacity",
			"Total number of parking slots", nil, nil),
		occupied: prometheus.NewDesc("parking_lot_occupied_slots",
			"Number of occupied parking slots", nil, nil),
		free: prometheus.NewDesc("parking_lot_free_slots",
			"Number of free parking slots", nil, nil),
	}
}

func (c *lotCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.capacity
	ch <- c.occupied
	ch <- c.free
}

func (c *lotCollector) Collect(ch chan<- prometheus.Metric) {
	capacity, occupied, ok := c.lot.Snapshot()
	if !ok {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(capacity))
	ch <- prometheus.MustNewConstMetric(c.occupied, prometheus.GaugeValue, float64(occupied))
	ch <- prometheus.MustNewConstMetric(c.free, prometheus.GaugeValue, float64(capacity-occupied))
}

// newRegistry builds the registry served on /metrics.
func newRegistry(lot lotSnapshotter) *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		newLotCollector(lot),
	)
	return registry
}
