package counter

import (
	"context"
	"time"
)

// Scope carries the per-control-flow state that pycounters keeps in
// thread-local storage: the timer stash AverageTimeCounter reads on
// "end", and each ThreadTimeCategorizer's pushdown stack of active
// category timers. One Scope must not be shared between concurrently
// running goroutines; fork a child context with a fresh Scope per
// concurrent flow (e.g. per inbound request), exactly as a new OS thread
// would get a fresh threading.local() in the original.
type Scope struct {
	timerStarts map[string]time.Time
	catStacks   map[string]*catStack
}

type scopeKey struct{}

// NewScope returns ctx with a fresh Scope attached, replacing any Scope
// already present.
func NewScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, scopeKey{}, &Scope{
		timerStarts: make(map[string]time.Time),
		catStacks:   make(map[string]*catStack),
	})
}

// scopeFrom returns the Scope on ctx, or a fresh detached Scope if none
// was attached. A detached Scope is discarded when the call returns, so
// on a context without NewScope a "start" and its matching "end" never
// meet: AverageTimeCounter records no sample and ThreadTimeCategorizer
// accrues no time.
func scopeFrom(ctx context.Context) *Scope {
	if s, ok := ctx.Value(scopeKey{}).(*Scope); ok {
		return s
	}
	return &Scope{timerStarts: make(map[string]time.Time), catStacks: make(map[string]*catStack)}
}
