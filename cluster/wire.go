package cluster

import (
	"encoding/gob"
	"fmt"
	"net"
	"sync"

	"github.com/ClusterCockpit/cc-perfcounters/value"
)

func init() {
	gob.Register(&value.Accumulative{})
	gob.Register(&value.Average{})
	gob.Register(&value.Max{})
	gob.Register(&value.Min{})
}

// FrameKind distinguishes the messages exchanged over the gob stream. A
// single gob.Encoder/Decoder pair is reused for the lifetime of a
// connection, so the stream self-describes Frame's concrete type once;
// Kind distinguishes the logical message within that stream.
type FrameKind int

const (
	// FrameAnnounce is sent node->leader on connect; NodeID is the
	// announcing node's id.
	FrameAnnounce FrameKind = iota
	// FrameAck is sent leader->node in response to FrameAnnounce.
	FrameAck
	// FrameCollect is sent leader->node to request a counter snapshot.
	FrameCollect
	// FrameQuit is sent leader->node to request the node close its
	// connection and re-enter election.
	FrameQuit
	// FrameWait is sent leader->node as a no-op keepalive.
	FrameWait
	// FrameCollection is sent node->leader in response to FrameCollect,
	// carrying the node's current counter snapshot.
	FrameCollection
)

// Frame is the single message type exchanged over a cluster connection.
// Collection and NodeID are populated according to Kind; gob omits zero
// fields so an announce frame costs little more than its NodeID string.
type Frame struct {
	Kind       FrameKind
	NodeID     string
	Collection value.Collection
}

// conn wraps a net.Conn with the gob encoder/decoder bound to it and a
// write-side mutex: gob.Encoder is not safe for concurrent Encode calls
// on one stream, and a leader may send collect requests from multiple
// goroutines in principle, so every send goes through sendMu.
type conn struct {
	nc     net.Conn
	enc    *gob.Encoder
	dec    *gob.Decoder
	sendMu sync.Mutex
}

func newConn(nc net.Conn) *conn {
	return &conn{nc: nc, enc: gob.NewEncoder(nc), dec: gob.NewDecoder(nc)}
}

func (c *conn) send(f Frame) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if err := c.enc.Encode(f); err != nil {
		return fmt.Errorf("cluster: encoding frame: %w", err)
	}
	return nil
}

func (c *conn) receive() (Frame, error) {
	var f Frame
	if err := c.dec.Decode(&f); err != nil {
		return Frame{}, fmt.Errorf("cluster: decoding frame: %w", err)
	}
	return f, nil
}

func (c *conn) close() error {
	return c.nc.Close()
}
