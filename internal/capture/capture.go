// Package capture wraps one displayed question with a countdown and seals it
// exactly once, either by an explicit submission or by expiry.
package capture

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/abhisek/nextstep/internal/assessment"
)

// TickInterval is how often the countdown re-evaluates the deadline.
const TickInterval = time.Second

// Capture owns the sealed flag for a single question.
type Capture struct {
	clock    clockwork.Clock
	template assessment.Response
	deadline time.Time

	sealed   atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}

	onTick   func(remaining time.Duration)
	onExpire func(assessment.Response)
}

// Options configures a capture.
type Options struct {
	// Budget is the countdown length. Zero disables the countdown: the
	// question can then only be sealed by Submit or Cancel.
	Budget time.Duration

	// OnTick is called from the countdown goroutine once per tick.
	OnTick func(remaining time.Duration)

	// OnExpire receives the forced response when the countdown wins.
	OnExpire func(assessment.Response)
}

// Start begins capturing a response for q. template carries the identity
// fields (candidate, sub-test, attempt) copied into the sealed response.
// The ticker is registered before Start returns.
func Start(clock clockwork.Clock, template assessment.Response, q *assessment.Question, opts Options) *Capture {
	template.QuestionID = q.ID
	template.Ordinal = q.Ordinal
	template.Value = nil
	template.Forced = false

	c := &Capture{
		clock:    clock,
		template: template,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		onTick:   opts.OnTick,
		onExpire: opts.OnExpire,
	}
	if opts.Budget <= 0 {
		close(c.done)
		return c
	}
	c.deadline = clock.Now().Add(opts.Budget)
	ticker := clock.NewTicker(TickInterval)
	go c.run(ticker)
	return c
}

func (c *Capture) run(ticker clockwork.Ticker) {
	defer close(c.done)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.Chan():
			if c.sealed.Load() {
				return
			}
			remaining := c.deadline.Sub(c.clock.Now())
			if remaining > 0 {
				if c.onTick != nil {
					c.onTick(remaining)
				}
				continue
			}
			if !c.sealed.CompareAndSwap(false, true) {
				return
			}
			resp := c.template
			resp.Forced = true
			resp.SubmittedAt = c.clock.Now()
			if c.onExpire != nil {
				c.onExpire(resp)
			}
			return
		}
	}
}

// Submit seals the question with an explicit value, which may be nil. It
// returns ErrDuplicateResponse when the question is already sealed.
func (c *Capture) Submit(value *string) (assessment.Response, error) {
	if !c.sealed.CompareAndSwap(false, true) {
		return assessment.Response{}, assessment.ErrDuplicateResponse
	}
	c.halt()
	resp := c.template
	if value != nil {
		v := *value
		resp.Value = &v
	}
	resp.SubmittedAt = c.clock.Now()
	return resp, nil
}

// Cancel seals the question without producing a response and stops the
// countdown. It never waits for the countdown goroutine, so it is safe to
// call while holding a lock that OnExpire also takes.
func (c *Capture) Cancel() {
	c.sealed.Store(true)
	c.halt()
}

func (c *Capture) halt() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Sealed reports whether a response has been produced or the capture was
// cancelled.
func (c *Capture) Sealed() bool {
	return c.sealed.Load()
}

// Remaining returns the time left on the countdown, or zero when untimed.
func (c *Capture) Remaining() time.Duration {
	if c.deadline.IsZero() {
		return 0
	}
	r := c.deadline.Sub(c.clock.Now())
	if r < 0 {
		return 0
	}
	return r
}

// QuestionID returns the id of the captured question.
func (c *Capture) QuestionID() string {
	return c.template.QuestionID
}

// Done is closed once the countdown goroutine has exited.
func (c *Capture) Done() <-chan struct{} {
	return c.done
}
