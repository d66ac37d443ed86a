package counter

import "github.com/ClusterCockpit/cc-perfcounters/event"

// triggerValue implements the Trigger mixing from spec.md §4.2: an "end"
// event is treated as an implicit value=1 occurrence; a "value" event
// passes its param straight through. Any other event (start, or a
// paramless value) is not a trigger and is ignored.
func triggerValue(e event.Event) (float64, bool) {
	switch e.Property {
	case event.End:
		return 1, true
	case event.Val:
		if e.Param != nil {
			return *e.Param, true
		}
	}
	return 0, false
}
