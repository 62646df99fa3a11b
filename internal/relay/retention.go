package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration parses a 5-field cron expression and returns the duration
// until the next fire time. Returns 0 on parse error.
func nextCronDuration(expr string) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	next := sched.Next(time.Now())
	d := time.Until(next)
	if d < 0 {
		return 0
	}
	return d
}

// Sweeper evicts stale sessions and message records on a cron schedule.
// Undelivered replies and the sessions holding them are never evicted.
type Sweeper struct {
	service *Service
	maxAge  time.Duration
	cron    string
}

// SweeperOpts holds parameters for creating a Sweeper.
type SweeperOpts struct {
	Service *Service
	MaxAge  time.Duration // records/sessions idle longer than this are evicted
	Cron    string        // 5-field cron expression
}

// NewSweeper creates a Sweeper.
func NewSweeper(opts SweeperOpts) (*Sweeper, error) {
	if opts.Service == nil {
		return nil, fmt.Errorf("relay: sweeper: service is required")
	}
	if opts.MaxAge > 0 {
		if _, err := cronParser.Parse(opts.Cron); err != nil {
			return nil, fmt.Errorf("relay: sweeper: parse cron %q: %w", opts.Cron, err)
		}
	}
	return &Sweeper{
		service: opts.Service,
		maxAge:  opts.MaxAge,
		cron:    opts.Cron,
	}, nil
}

// Sweep runs one eviction pass. Evicted client→operator records are handed
// to the archiver (delivered replies were archived on acknowledgement).
// Returns the number of evicted messages and sessions.
func (sw *Sweeper) Sweep() (int, int) {
	msgs, sessions := sw.service.store.Sweep(sw.maxAge)
	for _, msg := range msgs {
		if msg.Direction == ClientToOperator {
			sw.service.archive(msg)
		}
	}
	if len(msgs) > 0 || sessions > 0 {
		fmt.Fprintf(sw.service.out, "relay: sweep evicted %d messages, %d sessions\n", len(msgs), sessions)
	}
	return len(msgs), sessions
}

// Run schedules Sweep from the cron expression until the context is
// cancelled. Returns immediately when retention is disabled.
func (sw *Sweeper) Run(ctx context.Context) {
	if sw.maxAge <= 0 {
		return
	}
	for {
		d := nextCronDuration(sw.cron)
		if d <= 0 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(d):
			sw.Sweep()
		}
	}
}
