package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ClusterCockpit/cc-perfcounters/value"
	"github.com/gofrs/flock"
)

// JSONFileReporter overwrites a file with the latest snapshot, encoded
// as a flat name -> number JSON object (null for empty values). An
// exclusive flock guards the file against a concurrent reporter in
// another process clobbering a partial write, the same hazard
// pycounters' JSONFileReporter guards against with its own file lock.
type JSONFileReporter struct {
	path string
}

// NewJSONFileReporter returns a JSONFileReporter that writes to path on
// every Report call.
func NewJSONFileReporter(path string) *JSONFileReporter {
	return &JSONFileReporter{path: path}
}

// Report implements Reporter.
func (r *JSONFileReporter) Report(_ context.Context, coll value.Collection) error {
	lock := flock.New(r.path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("report: acquiring lock for %s: %w", r.path, err)
	}
	if !locked {
		return fmt.Errorf("report: %s is locked by another reporter", r.path)
	}
	defer lock.Unlock()

	buf, err := json.MarshalIndent(coll.Numbers(), "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshaling snapshot: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return fmt.Errorf("report: writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("report: renaming %s to %s: %w", tmp, r.path, err)
	}
	return nil
}
