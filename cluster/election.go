package cluster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ClusterCockpit/cc-perfcounters/pkg/log"
)

// ErrElectionTimeout is returned when every endpoint in the configured
// list refused both a node connection and a leader bind for the whole
// configured timeout.
var ErrElectionTimeout = errors.New("cluster: election timeout, no leader or connection acquired")

// State is a participant's position in the five-state election machine.
type State int

const (
	StateInit State = iota
	StateElecting
	StateNode
	StateLeader
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateElecting:
		return "electing"
	case StateNode:
		return "node"
	case StateLeader:
		return "leader"
	case StateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// backoffDelay is spec.md's retry delay sequence: 0.1s, 0.2s, then
// 1s per further attempt.
func backoffDelay(attempt int) time.Duration {
	switch attempt {
	case 0:
		return 100 * time.Millisecond
	case 1:
		return 200 * time.Millisecond
	default:
		return time.Second
	}
}

// Participant runs the full election state machine over an ordered
// endpoint list: connect as node to the first reachable endpoint,
// top-first; failing that, bind-and-listen as leader at the first free
// endpoint. A leader periodically checks whether a more preferred
// endpoint has freed up and, if so, steps down and re-elects.
type Participant struct {
	id        string
	endpoints []Endpoint
	collect   CollectFunc
	timeout   time.Duration

	// UpgradeInterval is how often a leader checks levels above its own
	// for a better leader. MinDwell is the minimum time a participant
	// must have held leadership before its first upgrade check, damping
	// the thrash spec.md §9 flags as a risk.
	UpgradeInterval time.Duration
	MinDwell        time.Duration

	state State
}

// NewParticipant returns a Participant identified by id, racing for
// leadership of endpoints (top-first) within timeout per election
// attempt, answering collect requests with collect.
func NewParticipant(id string, endpoints []Endpoint, collect CollectFunc, timeout time.Duration) *Participant {
	return &Participant{
		id:              id,
		endpoints:       append([]Endpoint(nil), endpoints...),
		collect:         collect,
		timeout:         timeout,
		UpgradeInterval: 30 * time.Second,
		MinDwell:        60 * time.Second,
		state:           StateInit,
	}
}

// State returns the participant's current state.
func (p *Participant) State() State { return p.state }

// electResult is what one successful election round produces.
type electResult struct {
	level Level
	node  *Node  // set when NODE(k); also set (the self-node) when LEADER(k)
	lead  *Leader // set only when LEADER(k)
}

// withDialTimeout bounds a single connection attempt so an unreachable
// endpoint fails fast into the next retry instead of hanging on the
// OS-level connect timeout for the whole election budget.
func (p *Participant) withDialTimeout(ctx context.Context, fn func(context.Context) error) error {
	dctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return fn(dctx)
}

// elect runs steps 1-4 of spec.md §4.6's election protocol once,
// retrying with backoff until timeout elapses.
func (p *Participant) elect(ctx context.Context) (electResult, error) {
	p.state = StateElecting
	deadline := time.Now().Add(p.timeout)

	for attempt := 0; ; attempt++ {
		// Step 1: try to connect as a node, top-first.
		for level, ep := range p.endpoints {
			n := NewNode(p.id, p.collect)
			err := p.withDialTimeout(ctx, func(dctx context.Context) error { return n.Connect(dctx, ep) })
			if err == nil {
				p.state = StateNode
				return electResult{level: Level(level), node: n}, nil
			}
		}

		// Steps 2-3: try to bind-and-listen, top-first.
		for level, ep := range p.endpoints {
			l := NewLeader()
			if err := l.TryToLead(ctx, ep); err != nil {
				continue
			}
			self := NewNode(p.id, p.collect)
			err := p.withDialTimeout(ctx, func(dctx context.Context) error { return self.Connect(dctx, ep) })
			if err != nil {
				log.Warnf("cluster: %s: leader could not self-connect at %s: %v", p.id, ep.Addr(), err)
				l.Shutdown()
				continue
			}
			p.state = StateLeader
			return electResult{level: Level(level), node: self, lead: l}, nil
		}

		// Step 4: everything failed; back off and retry, bounded by timeout.
		if time.Now().After(deadline) {
			return electResult{}, ErrElectionTimeout
		}
		select {
		case <-ctx.Done():
			return electResult{}, ctx.Err()
		case <-time.After(backoffDelay(attempt)):
		}
	}
}

// Run drives the participant through repeated election rounds until ctx
// is cancelled or the election times out (a fatal condition per
// spec.md's "on final failure, raise"). Each round either runs as a node
// until disconnect, or as a leader until an upgrade or shutdown, then
// re-enters election.
func (p *Participant) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			p.state = StateShutdown
			return nil
		}

		res, err := p.elect(ctx)
		if err != nil {
			p.state = StateShutdown
			return err
		}

		if res.lead == nil {
			err := res.node.Wait()
			if ctx.Err() != nil {
				p.state = StateShutdown
				return nil
			}
			log.Warnf("cluster: %s: node disconnected, re-electing: %v", p.id, err)
			continue
		}

		if err := p.runAsLeader(ctx, res); err != nil {
			p.state = StateShutdown
			return err
		}
		if ctx.Err() != nil {
			p.state = StateShutdown
			return nil
		}
		// upgrade found a better leader; fall through and re-elect
	}
}

// runAsLeader holds leadership at res.level, periodically probing every
// strictly-more-preferred endpoint for a leader willing to ack a plain
// connection attempt. Returns nil (to trigger re-election) as soon as
// one is found and this participant has stepped down, or when ctx is
// cancelled.
func (p *Participant) runAsLeader(ctx context.Context, res electResult) error {
	becameLeaderAt := time.Now()
	defer func() {
		res.node.Shutdown()
		res.lead.Shutdown()
	}()

	if res.level == 0 {
		// Nothing more preferred to check; just wait out the context.
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(p.UpgradeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if time.Since(becameLeaderAt) < p.MinDwell {
				continue
			}
			if p.betterLeaderExists(ctx, res.level) {
				log.Infof("cluster: %s: found a more preferred leader, stepping down from level %d", p.id, res.level)
				return nil
			}
		}
	}
}

// betterLeaderExists probes every endpoint strictly more preferred than
// level (lower index) for a leader that completes the announce/ack
// handshake.
func (p *Participant) betterLeaderExists(ctx context.Context, level Level) bool {
	for i := 0; i < int(level); i++ {
		n := NewNode(fmt.Sprintf("%s-probe", p.id), p.collect)
		err := n.Connect(ctx, p.endpoints[i])
		if err == nil {
			n.Shutdown()
			return true
		}
	}
	return false
}
