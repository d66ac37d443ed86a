package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ClusterCockpit/cc-perfcounters/value"
	"github.com/nats-io/nats.go"
)

// NATSReporter publishes each snapshot as a JSON message on a fixed
// subject, grounded on pkg/nats' Client.Publish wrapper. It also
// satisfies LineProtocolSink, so a LineProtocolReporter can use it to
// publish pre-encoded batches over the same connection and on the same
// subject.
type NATSReporter struct {
	conn    *nats.Conn
	subject string
}

// NewNATSReporter returns a reporter that publishes to subject over an
// already-established connection. Callers own the connection's
// lifecycle (connect before, close after).
func NewNATSReporter(conn *nats.Conn, subject string) *NATSReporter {
	return &NATSReporter{conn: conn, subject: subject}
}

// Report implements Reporter.
func (r *NATSReporter) Report(_ context.Context, coll value.Collection) error {
	buf, err := json.Marshal(coll.Numbers())
	if err != nil {
		return fmt.Errorf("report: marshaling snapshot: %w", err)
	}
	if err := r.conn.Publish(r.subject, buf); err != nil {
		return fmt.Errorf("report: NATS publish to %q failed: %w", r.subject, err)
	}
	return nil
}

// WriteLineProtocol implements LineProtocolSink by publishing the raw
// encoded batch as the message payload.
func (r *NATSReporter) WriteLineProtocol(_ context.Context, batch []byte) error {
	if err := r.conn.Publish(r.subject, batch); err != nil {
		return fmt.Errorf("report: NATS publish to %q failed: %w", r.subject, err)
	}
	return nil
}
