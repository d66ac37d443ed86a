package cluster

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/ClusterCockpit/cc-perfcounters/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nextPort is where the next bindable call starts scanning, so successive
// calls hand out distinct ports even though each probe is released again.
var nextPort = 20000

// bindable picks a free port from a fixed range up front so both the
// leader bind and the node dial target the same concrete address (Port: 0
// only works for the listener side).
func bindable(t *testing.T) Endpoint {
	t.Helper()
	l := NewLeader()
	ctx := context.Background()
	var ep Endpoint
	for port := nextPort; port < 20100; port++ {
		ep = Endpoint{Host: "127.0.0.1", Port: uint16(port)}
		if err := l.TryToLead(ctx, ep); err == nil {
			require.NoError(t, l.Shutdown())
			nextPort = port + 1
			return ep
		}
	}
	t.Fatal("no free port found in range")
	return Endpoint{}
}

func TestNodeConnectsAndAnswersCollect(t *testing.T) {
	ctx := context.Background()
	ep := bindable(t)

	l := NewLeader()
	require.NoError(t, l.TryToLead(ctx, ep))
	defer l.Shutdown()

	collectCalls := 0
	n := NewNode("node-a", func(context.Context) value.Collection {
		collectCalls++
		return value.Collection{"hits": value.NewAccumulative(float64(collectCalls))}
	})
	require.NoError(t, n.Connect(ctx, ep))
	defer n.Shutdown()

	require.Eventually(t, func() bool { return l.NodeCount() == 1 }, time.Second, 10*time.Millisecond)

	perNode := l.CollectFromAllNodes(ctx)
	require.Len(t, perNode, 1)
	got, ok := perNode["node-a"]
	require.True(t, ok)
	n1, ok := got["hits"].Number()
	require.True(t, ok)
	assert.Equal(t, float64(1), n1)
}

func TestLeaderDropsDeadProxyOnCollectionError(t *testing.T) {
	ctx := context.Background()
	ep := bindable(t)

	l := NewLeader()
	require.NoError(t, l.TryToLead(ctx, ep))
	defer l.Shutdown()

	n := NewNode("node-b", func(context.Context) value.Collection { return value.Collection{} })
	require.NoError(t, n.Connect(ctx, ep))
	require.Eventually(t, func() bool { return l.NodeCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, n.Shutdown())
	time.Sleep(50 * time.Millisecond)

	perNode := l.CollectFromAllNodes(ctx)
	assert.Len(t, perNode, 0)
	assert.Equal(t, 0, l.NodeCount())
}

func TestMergeSumsAcrossNodesAndAugments(t *testing.T) {
	perNode := map[string]value.Collection{
		"n1": {"reqs": value.NewAccumulative(1)},
		"n2": {"reqs": value.NewAccumulative(2)},
		"n3": {"reqs": value.NewAccumulative(3)},
	}
	now := time.Unix(123456, 0)

	merged, doc, err := Merge(perNode, now)
	require.NoError(t, err)

	n, ok := merged["reqs"].Number()
	require.True(t, ok)
	assert.Equal(t, float64(6), n)

	assert.Equal(t, float64(6), doc["reqs"])
	assert.Equal(t, int64(123456), doc[CollectionTimeKey])
	reports, ok := doc[NodeReportsKey].(map[string]map[string]any)
	require.True(t, ok)
	assert.Len(t, reports, 3)
	assert.Equal(t, float64(1), reports["n1"]["reqs"])
}

func TestParticipantFirstStarterBecomesLeaderSecondBecomesNode(t *testing.T) {
	ep := bindable(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p1 := NewParticipant("p1", []Endpoint{ep}, func(context.Context) value.Collection { return value.Collection{} }, 5*time.Second)
	res1, err := p1.elect(ctx)
	require.NoError(t, err)
	require.NotNil(t, res1.lead)
	assert.Equal(t, StateLeader, p1.State())
	defer res1.lead.Shutdown()
	defer res1.node.Shutdown()

	p2 := NewParticipant("p2", []Endpoint{ep}, func(context.Context) value.Collection { return value.Collection{} }, 5*time.Second)
	res2, err := p2.elect(ctx)
	require.NoError(t, err)
	assert.Nil(t, res2.lead)
	assert.Equal(t, StateNode, p2.State())
	defer res2.node.Shutdown()
}

func TestLeaderStepsDownWhenMorePreferredEndpointFreesUp(t *testing.T) {
	eA := bindable(t)
	eB := bindable(t)
	ctx := context.Background()

	// Occupy the preferred endpoint with a bare listener that closes every
	// accepted connection immediately, so both a node-connect and a
	// leader-bind attempt at eA fail fast.
	occupant, err := net.Listen("tcp", eA.Addr())
	require.NoError(t, err)
	go func() {
		for {
			c, err := occupant.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	collect := func(context.Context) value.Collection { return value.Collection{} }
	p1 := NewParticipant("p1", []Endpoint{eA, eB}, collect, 5*time.Second)
	p1.UpgradeInterval = 20 * time.Millisecond
	p1.MinDwell = 0

	res1, err := p1.elect(ctx)
	require.NoError(t, err)
	require.NotNil(t, res1.lead)
	assert.Equal(t, Level(1), res1.level)

	// Free eA and let a real leader take it, so the next upgrade probe
	// finds a better-preferred leader and p1 steps down.
	require.NoError(t, occupant.Close())
	better := NewLeader()
	require.NoError(t, better.TryToLead(ctx, eA))
	defer better.Shutdown()

	runCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	err = p1.runAsLeader(runCtx, res1)
	assert.NoError(t, err)
	assert.NoError(t, runCtx.Err())
}

func TestElectionTimeoutWhenNoEndpointUsable(t *testing.T) {
	// An endpoint whose host cannot be bound or dialed within the budget.
	ep := Endpoint{Host: "240.0.0.1", Port: 1}
	ctx := context.Background()
	p := NewParticipant("p", []Endpoint{ep}, func(context.Context) value.Collection { return value.Collection{} }, 300*time.Millisecond)
	_, err := p.elect(ctx)
	assert.ErrorIs(t, err, ErrElectionTimeout)
}
