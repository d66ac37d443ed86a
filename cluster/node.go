package cluster

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/ClusterCockpit/cc-perfcounters/pkg/log"
	"github.com/ClusterCockpit/cc-perfcounters/value"
	"golang.org/x/sync/errgroup"
)

// CollectFunc returns the current counter snapshot to answer a leader's
// collect request. Typically registry.Registry.Snapshot.
type CollectFunc func(ctx context.Context) value.Collection

// Node is a participant connected to a leader, answering collect
// requests from a single sequential receive loop exactly as spec'd:
// read command, execute callback, write response, repeat.
type Node struct {
	id      string
	collect CollectFunc

	mu     sync.Mutex
	c      *conn
	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewNode returns a Node identified by id that answers collect requests
// with collect.
func NewNode(id string, collect CollectFunc) *Node {
	return &Node{id: id, collect: collect}
}

// ID returns the node's identity string.
func (n *Node) ID() string { return n.id }

// Connect dials ep, announces the node's id, and waits for the leader's
// ack. On success it spawns the background receive loop and returns
// nil; the loop runs until Shutdown or an I/O error, at which point
// Wait returns that error so the caller can re-enter election.
func (n *Node) Connect(ctx context.Context, ep Endpoint) error {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", ep.Addr())
	if err != nil {
		return fmt.Errorf("cluster: node %s: dial %s: %w", n.id, ep.Addr(), err)
	}
	c := newConn(nc)

	if err := c.send(Frame{Kind: FrameAnnounce, NodeID: n.id}); err != nil {
		c.close()
		return err
	}
	reply, err := c.receive()
	if err != nil {
		c.close()
		return fmt.Errorf("cluster: node %s: awaiting ack: %w", n.id, err)
	}
	if reply.Kind != FrameAck {
		c.close()
		return fmt.Errorf("cluster: node %s: expected ack, got frame kind %d", n.id, reply.Kind)
	}

	// The receive loop outlives ctx, which may only bound the dial (see
	// Participant.withDialTimeout); only Shutdown cancels the loop.
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	g, loopCtx := errgroup.WithContext(loopCtx)

	n.mu.Lock()
	n.c = c
	n.cancel = cancel
	n.group = g
	n.mu.Unlock()

	g.Go(func() error { return n.receiveLoop(loopCtx, c) })

	log.Infof("cluster: node %s connected to leader at %s", n.id, ep.Addr())
	return nil
}

func (n *Node) receiveLoop(ctx context.Context, c *conn) error {
	for {
		cmd, err := c.receive()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("cluster: node %s: receive loop: %w", n.id, err)
		}

		switch cmd.Kind {
		case FrameCollect:
			coll := n.collect(ctx)
			if err := c.send(Frame{Kind: FrameCollection, Collection: coll}); err != nil {
				return err
			}
		case FrameQuit:
			return nil
		case FrameWait:
			// keepalive, no response required
		default:
			log.Warnf("cluster: node %s: unexpected frame kind %d", n.id, cmd.Kind)
		}
	}
}

// Wait blocks until the receive loop exits, returning its error (nil on
// a clean Shutdown or leader-initiated quit).
func (n *Node) Wait() error {
	n.mu.Lock()
	g := n.group
	n.mu.Unlock()
	if g == nil {
		return nil
	}
	return g.Wait()
}

// Shutdown closes the connection and waits for the receive loop to
// exit.
func (n *Node) Shutdown() error {
	n.mu.Lock()
	c := n.c
	cancel := n.cancel
	n.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if c != nil {
		c.close()
	}
	return n.Wait()
}
