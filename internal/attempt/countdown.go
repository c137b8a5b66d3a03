package attempt

import (
	"fmt"
	"sync"
	"time"
)

const tickInterval = time.Second

// Remaining is the time left until deadline, truncated to whole seconds and
// never negative.
func Remaining(deadline, now time.Time) time.Duration {
	left := deadline.Sub(now)
	if left <= 0 {
		return 0
	}
	return left.Truncate(time.Second)
}

// FormatRemaining renders d as HH:MM:SS.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// Countdown owns at most one running ticker. Reset replaces it and Stop
// tears it down. onExpire runs at most once per Reset.
type Countdown struct {
	clock    Clock
	onTick   func(time.Duration)
	onExpire func()

	mu     sync.Mutex
	ticker Ticker
	stop   chan struct{}
}

func NewCountdown(clock Clock, onTick func(time.Duration), onExpire func()) *Countdown {
	if clock == nil {
		clock = SystemClock()
	}
	return &Countdown{clock: clock, onTick: onTick, onExpire: onExpire}
}

func (c *Countdown) Reset(deadline time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	stop := make(chan struct{})
	ticker := c.clock.NewTicker(tickInterval)
	c.stop = stop
	c.ticker = ticker
	go c.run(deadline, ticker, stop)
}

func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil
}

func (c *Countdown) stopLocked() {
	if c.stop == nil {
		return
	}
	close(c.stop)
	c.ticker.Stop()
	c.stop = nil
	c.ticker = nil
}

func (c *Countdown) run(deadline time.Time, ticker Ticker, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
		}

		select {
		case <-stop:
			return
		default:
		}

		remaining := Remaining(deadline, c.clock.Now())
		if c.onTick != nil {
			c.onTick(remaining)
		}
		if remaining > 0 {
			continue
		}

		c.mu.Lock()
		current := c.stop == stop
		if current {
			c.stopLocked()
		}
		c.mu.Unlock()
		if current && c.onExpire != nil {
			c.onExpire()
		}
		return
	}
}
