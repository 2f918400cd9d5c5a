package clock

import "time"

// Clock is the tick source of a simulation loop.
type Clock interface {
	Now() time.Time
	Advance(d time.Duration)
	Reset()
	// Tick returns the scaled time elapsed since the previous Tick.
	Tick() time.Duration
}

type Config struct {
	// Multiplier scales every delta returned by Tick.
	Multiplier float64
	// Step makes Tick return a fixed delta regardless of wall time.
	Step time.Duration
	Now  func() time.Time
}

var DefaultConfig = Config{
	Multiplier: 1,
	Now:        time.Now,
}

type clock struct {
	delta      time.Duration
	last       time.Time
	step       time.Duration
	multiplier float64
	now        func() time.Time
}

func (c *clock) Now() time.Time {
	return c.now().Add(c.delta)
}

func (c *clock) Advance(d time.Duration) {
	c.delta += d
}

func (c *clock) Reset() {
	c.delta = 0
	c.last = time.Time{}
}

func (c *clock) Tick() time.Duration {
	if c.step > 0 {
		return c.scale(c.step)
	}
	now := c.Now()
	if c.last.IsZero() {
		c.last = now
		return 0
	}
	elapsed := now.Sub(c.last)
	c.last = now
	if elapsed < 0 {
		return 0
	}
	return c.scale(elapsed)
}

func (c *clock) scale(d time.Duration) time.Duration {
	return time.Duration(float64(d) * c.multiplier)
}

func Make(config ...Config) Clock {
	cfg := DefaultConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = DefaultConfig.Multiplier
	}
	if cfg.Now == nil {
		cfg.Now = DefaultConfig.Now
	}
	return &clock{
		step:       max(0, cfg.Step),
		multiplier: cfg.Multiplier,
		now:        cfg.Now,
	}
}
