package metrics

import (
	"time"

	"github.com/cuemby/topicgate/pkg/registry"
)

// Collector periodically snapshots the Topic Registry into the active-topic
// and per-topic-subscriber-count gauges. Everything else (counters,
// histograms) is updated inline by the components that do the work.
type Collector struct {
	reg    *registry.Registry
	stopCh chan struct{}
}

// NewCollector creates a metrics Collector over reg.
func NewCollector(reg *registry.Registry) *Collector {
	return &Collector{
		reg:    reg,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics on a 15s tick.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	topics := c.reg.Snapshot()
	TopicsActive.Set(float64(len(topics)))
	for _, t := range topics {
		SubscriberCount.WithLabelValues(t.ID).Set(float64(t.SubscriberCount))
	}
}
