package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ClusterCockpit/cc-perfcounters/value"
	"github.com/influxdata/line-protocol/v2/lineprotocol"
)

// LineProtocolSink receives one encoded InfluxDB line-protocol batch per
// snapshot. A NATS or direct-write sink both satisfy this by wrapping
// their respective publish call.
type LineProtocolSink interface {
	WriteLineProtocol(ctx context.Context, batch []byte) error
}

// LineProtocolReporter encodes each snapshot as a single InfluxDB
// line-protocol line under one measurement, with one field per non-empty
// counter, and hands the batch to sink,
// mirroring the line-protocol encode/decode symmetry memorystore uses
// for its own NATS ingestion path.
type LineProtocolReporter struct {
	measurement string
	tags        map[string]string
	sink        LineProtocolSink
	now         func() time.Time
}

// NewLineProtocolReporter returns a reporter that encodes every
// snapshot under measurement, with the given tag set attached to every
// point, and hands the encoded batch to sink.
func NewLineProtocolReporter(measurement string, tags map[string]string, sink LineProtocolSink) *LineProtocolReporter {
	return &LineProtocolReporter{measurement: measurement, tags: tags, sink: sink, now: time.Now}
}

// Report implements Reporter.
func (r *LineProtocolReporter) Report(ctx context.Context, coll value.Collection) error {
	var enc lineprotocol.Encoder
	enc.SetPrecision(lineprotocol.Nanosecond)

	enc.StartLine(r.measurement)
	for _, k := range sortedKeys(r.tags) {
		enc.AddTag(k, r.tags[k])
	}

	numbers := coll.Numbers()
	for _, name := range sortedKeys(numbers) {
		n, ok := numbers[name].(float64)
		if !ok {
			continue
		}
		enc.AddField(name, lineprotocol.MustNewValue(n))
	}
	enc.EndLine(r.now())

	if err := enc.Err(); err != nil {
		return fmt.Errorf("report: encoding line protocol: %w", err)
	}
	return r.sink.WriteLineProtocol(ctx, enc.Bytes())
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
