package cluster

import (
	"time"

	"github.com/ClusterCockpit/cc-perfcounters/value"
)

// NodeReportsKey and CollectionTimeKey name the two synthetic entries a
// merged collection's JSON document is augmented with. Consumers must
// ignore any key prefixed and suffixed with "__", per the wire format.
const (
	NodeReportsKey    = "__node_reports__"
	CollectionTimeKey = "__collection_time__"
)

// Merge folds perNode (node id -> that node's reported collection) into
// one counter-value collection using the §3 algebra. Because the leader
// always counts itself among perNode (it connects to its own listener
// as a node), its own counters participate in the merge without any
// special-casing here.
//
// The second return value is the full JSON-ready document: the merged
// collection flattened to plain numbers, plus a per-node breakdown and
// the leader's wall-clock collection time, exactly the shape spec.md's
// JSON file format requires. Reporters that only want flat numbers (log,
// Pushgateway, line protocol) should use the first return value via
// Collection.Numbers(); only a JSON-file-shaped output needs the second.
func Merge(perNode map[string]value.Collection, now time.Time) (value.Collection, map[string]any, error) {
	merged := value.New()
	reports := make(map[string]map[string]any, len(perNode))

	for id, coll := range perNode {
		if err := merged.MergeWith(coll); err != nil {
			return nil, nil, err
		}
		reports[id] = coll.Numbers()
	}

	doc := make(map[string]any, len(merged)+2)
	for k, v := range merged.Numbers() {
		doc[k] = v
	}
	doc[NodeReportsKey] = reports
	doc[CollectionTimeKey] = now.Unix()

	return merged, doc, nil
}
