package cluster

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/ClusterCockpit/cc-perfcounters/pkg/log"
	"github.com/ClusterCockpit/cc-perfcounters/value"
	"golang.org/x/sync/errgroup"
)

// nodeProxy is the leader's handle on one connected node: the
// conn it can issue collect/quit/wait requests over.
type nodeProxy struct {
	id string
	c  *conn
	mu sync.Mutex // serialises one collect request/response exchange
}

// Leader accepts node connections on a bound endpoint, tracks them as
// proxies, and drives collect_from_all_nodes on demand. It is safe for
// concurrent use.
type Leader struct {
	mu       sync.Mutex
	listener net.Listener
	nodes    map[string]*nodeProxy
	group    *errgroup.Group
	cancel   context.CancelFunc
}

// NewLeader returns an unbound Leader.
func NewLeader() *Leader {
	return &Leader{nodes: make(map[string]*nodeProxy)}
}

// TryToLead attempts to bind-and-listen on ep. On success it starts the
// accept loop in the background and returns nil; on failure (e.g. the
// address is already taken) it returns the listen error unwrapped so
// the caller can try the next endpoint in its list.
func (l *Leader) TryToLead(ctx context.Context, ep Endpoint) error {
	ln, err := net.Listen("tcp", ep.Addr())
	if err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	g, loopCtx := errgroup.WithContext(loopCtx)

	l.mu.Lock()
	l.listener = ln
	l.cancel = cancel
	l.group = g
	l.mu.Unlock()

	g.Go(func() error { return l.acceptLoop(loopCtx, ln) })

	log.Infof("cluster: leading on %s", ep.Addr())
	return nil
}

func (l *Leader) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("cluster: accept loop: %w", err)
		}
		go l.handleConn(ctx, nc)
	}
}

func (l *Leader) handleConn(ctx context.Context, nc net.Conn) {
	c := newConn(nc)
	f, err := c.receive()
	if err != nil || f.Kind != FrameAnnounce {
		log.Warnf("cluster: rejecting connection from %s: bad announce: %v", nc.RemoteAddr(), err)
		c.close()
		return
	}
	if err := c.send(Frame{Kind: FrameAck}); err != nil {
		log.Warnf("cluster: acking node %s: %v", f.NodeID, err)
		c.close()
		return
	}

	l.mu.Lock()
	l.nodes[f.NodeID] = &nodeProxy{id: f.NodeID, c: c}
	l.mu.Unlock()
	log.Infof("cluster: node %s registered", f.NodeID)
}

// CollectFromAllNodes issues collect to every registered proxy and
// returns each node's reported collection keyed by node id. A proxy
// whose send/receive fails is closed and dropped; collection proceeds
// with the rest.
func (l *Leader) CollectFromAllNodes(ctx context.Context) map[string]value.Collection {
	l.mu.Lock()
	proxies := make([]*nodeProxy, 0, len(l.nodes))
	for _, p := range l.nodes {
		proxies = append(proxies, p)
	}
	l.mu.Unlock()

	out := make(map[string]value.Collection, len(proxies))
	var dead []string
	for _, p := range proxies {
		coll, err := p.collect(ctx)
		if err != nil {
			log.Warnf("cluster: collecting from node %s: %v", p.id, err)
			p.c.close()
			dead = append(dead, p.id)
			continue
		}
		out[p.id] = coll
	}

	if len(dead) > 0 {
		l.mu.Lock()
		for _, id := range dead {
			delete(l.nodes, id)
		}
		l.mu.Unlock()
	}
	return out
}

func (p *nodeProxy) collect(_ context.Context) (value.Collection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.c.send(Frame{Kind: FrameCollect}); err != nil {
		return nil, err
	}
	reply, err := p.c.receive()
	if err != nil {
		return nil, err
	}
	if reply.Kind != FrameCollection {
		return nil, fmt.Errorf("cluster: node %s: expected collection, got frame kind %d", p.id, reply.Kind)
	}
	return reply.Collection, nil
}

// Collect runs CollectFromAllNodes and merges the result, returning both
// the merged collection and its full JSON-ready document (see Merge).
func (l *Leader) Collect(ctx context.Context) (value.Collection, map[string]any, error) {
	perNode := l.CollectFromAllNodes(ctx)
	return Merge(perNode, time.Now())
}

// NodeCount returns the number of currently registered node proxies.
func (l *Leader) NodeCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.nodes)
}

// Shutdown sends quit to every registered node, closes the listener and
// waits for the accept loop to exit.
func (l *Leader) Shutdown() error {
	l.mu.Lock()
	ln := l.listener
	cancel := l.cancel
	g := l.group
	nodes := l.nodes
	l.nodes = make(map[string]*nodeProxy)
	l.mu.Unlock()

	for _, p := range nodes {
		p.c.send(Frame{Kind: FrameQuit})
		p.c.close()
	}
	if cancel != nil {
		cancel()
	}
	if ln != nil {
		ln.Close()
	}
	if g != nil {
		return g.Wait()
	}
	return nil
}
