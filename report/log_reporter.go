package report

import (
	"context"
	"sort"

	"github.com/ClusterCockpit/cc-perfcounters/pkg/log"
	"github.com/ClusterCockpit/cc-perfcounters/value"
)

// LogReporter writes each snapshot through pkg/log as one "<name> <value>"
// line per counter, sorted by counter name for stable output.
type LogReporter struct {
	level string // "info" (default) or "debug"
}

// NewLogReporter returns a LogReporter. level selects the log level the
// snapshot line is written at; an empty string defaults to "info".
func NewLogReporter(level string) *LogReporter {
	return &LogReporter{level: level}
}

// Report implements Reporter.
func (r *LogReporter) Report(_ context.Context, coll value.Collection) error {
	names := make([]string, 0, len(coll))
	for name := range coll {
		names = append(names, name)
	}
	sort.Strings(names)

	nums := coll.Numbers()
	for _, name := range names {
		if r.level == "debug" {
			log.Debugf("%s %v", name, nums[name])
		} else {
			log.Infof("%s %v", name, nums[name])
		}
	}
	return nil
}
