package report

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ClusterCockpit/cc-perfcounters/pkg/log"
	"github.com/ClusterCockpit/cc-perfcounters/value"
	"github.com/go-co-op/gocron/v2"
)

// Controller snapshots a Source on a fixed interval and hands the
// snapshot to every registered Reporter, optionally clearing every
// counter afterwards. It mirrors taskmanager's one-scheduler-many-jobs
// shape, scaled down to the single recurring job a reporting loop needs.
type Controller struct {
	mu        sync.Mutex
	source    Source
	interval  time.Duration
	clearEach bool
	reporters []Reporter
	sched     gocron.Scheduler
	job       gocron.Job
}

// NewController returns a Controller that snapshots source every
// interval. If clearEach is true, every registered counter is Cleared
// immediately after each report round, whether or not its reporters
// succeeded (matching pycounters'
// default non-cumulative reporting); set it false to report running
// totals instead.
func NewController(source Source, interval time.Duration, clearEach bool) *Controller {
	return &Controller{source: source, interval: interval, clearEach: clearEach}
}

// AddReporter registers r to receive every future snapshot. Safe to call
// before or after StartAutoReport.
func (c *Controller) AddReporter(r Reporter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reporters = append(c.reporters, r)
}

// Report runs one snapshot-and-emit round immediately, independent of
// the automatic schedule. Errors from individual reporters are logged,
// not returned, so one failing output never blocks the others; a
// reporter that panics is recovered the same way, so the gocron job
// behind StartAutoReport never dies.
func (c *Controller) Report(ctx context.Context) {
	coll := c.source.Snapshot()

	c.mu.Lock()
	reporters := append([]Reporter(nil), c.reporters...)
	clearEach := c.clearEach
	c.mu.Unlock()

	for _, r := range reporters {
		c.reportOne(ctx, r, coll)
	}
	if clearEach {
		c.source.ClearAll()
	}
}

// reportOne runs a single reporter's Report, recovering a panic into an
// error the same way event.Dispatcher's notify recovers a listener
// panic. The resulting error, whether returned or recovered, is logged
// and, if r implements BackgroundErrorHandler, also handed to it.
func (c *Controller) reportOne(ctx context.Context, r Reporter, coll value.Collection) {
	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("panic: %v", rec)
			}
		}()
		return r.Report(ctx, coll)
	}()
	if err == nil {
		return
	}

	log.Errorf("report: reporter %T failed: %v", r, err)
	if h, ok := r.(BackgroundErrorHandler); ok {
		h.HandleBackgroundError(err)
	}
}

// StartAutoReport begins calling Report every interval in the
// background. It is an error to call StartAutoReport twice without an
// intervening StopAutoReport.
func (c *Controller) StartAutoReport(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sched != nil {
		return fmt.Errorf("report: controller already started")
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("report: could not create scheduler: %w", err)
	}

	job, err := s.NewJob(
		gocron.DurationJob(c.interval),
		gocron.NewTask(func() { c.Report(ctx) }),
	)
	if err != nil {
		return fmt.Errorf("report: could not schedule reporting job: %w", err)
	}

	c.sched = s
	c.job = job
	s.Start()
	log.Infof("report: auto-report started with %s interval", c.interval)
	return nil
}

// StopAutoReport stops the background schedule. Safe to call even if
// StartAutoReport was never called.
func (c *Controller) StopAutoReport() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sched == nil {
		return nil
	}
	err := c.sched.Shutdown()
	c.sched = nil
	c.job = nil
	return err
}
