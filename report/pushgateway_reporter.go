package report

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ClusterCockpit/cc-perfcounters/value"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// PushgatewayReporter pushes each snapshot to a Prometheus Pushgateway
// as a set of plain gauges, one gauge per counter name (dots and other
// non-identifier characters replaced with underscores for metric-name
// validity).
type PushgatewayReporter struct {
	mu     sync.Mutex
	pusher *push.Pusher
	gauges map[string]prometheus.Gauge
	reg    *prometheus.Registry
}

// NewPushgatewayReporter returns a reporter that pushes to gatewayURL
// under the given job name.
func NewPushgatewayReporter(gatewayURL, job string) *PushgatewayReporter {
	reg := prometheus.NewRegistry()
	return &PushgatewayReporter{
		pusher: push.New(gatewayURL, job).Gatherer(reg),
		gauges: make(map[string]prometheus.Gauge),
		reg:    reg,
	}
}

// Report implements Reporter.
func (r *PushgatewayReporter) Report(_ context.Context, coll value.Collection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, v := range coll {
		n, ok := v.Number()
		if !ok {
			continue
		}
		g, exists := r.gauges[name]
		if !exists {
			g = prometheus.NewGauge(prometheus.GaugeOpts{Name: metricName(name)})
			r.reg.MustRegister(g)
			r.gauges[name] = g
		}
		g.Set(n)
	}

	if err := r.pusher.Push(); err != nil {
		return fmt.Errorf("report: pushgateway push failed: %w", err)
	}
	return nil
}

func metricName(counterName string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' {
			return r
		}
		return '_'
	}, counterName)
}
