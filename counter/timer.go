package counter

import (
	"context"
	"time"
)

// timerStart stashes now as the start time for a named timer in the
// calling context's Scope. Mirrors ThreadTimer.start() being thread-
// local in pycounters: each concurrently running Scope gets its own
// stash, so nested or concurrent start/end pairs on different flows
// never clobber each other.
func timerStart(ctx context.Context, name string, now time.Time) {
	scopeFrom(ctx).timerStarts[name] = now
}

// timerElapsed returns the duration since the matching timerStart for
// name and clears the stash, or false if no start was ever recorded on
// this Scope (an "end" with no preceding "start", or a Scope-less ctx).
func timerElapsed(ctx context.Context, name string, now time.Time) (time.Duration, bool) {
	s := scopeFrom(ctx)
	start, ok := s.timerStarts[name]
	if !ok {
		return 0, false
	}
	delete(s.timerStarts, name)
	return now.Sub(start), true
}
