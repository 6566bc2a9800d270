package core

import "time"

// Clock measures elapsed wall time in nanoseconds. A stopped clock keeps its
// last elapsed value; Update is a no-op until Start is called.
type Clock struct {
	startTime float64
	elapsed   float64
}

func NewClock() *Clock {
	return &Clock{}
}

// Update refreshes the elapsed time. Call just before reading Elapsed.
func (c *Clock) Update() {
	if c.startTime != 0 {
		c.elapsed = float64(time.Now().UnixNano()) - c.startTime
	}
}

// Start resets and starts the clock.
func (c *Clock) Start() {
	c.startTime = float64(time.Now().UnixNano())
	c.elapsed = 0
}

// Stop halts the clock without resetting the elapsed time.
func (c *Clock) Stop() {
	c.startTime = 0
}

// Elapsed returns nanoseconds since Start, as of the last Update.
func (c *Clock) Elapsed() float64 {
	return c.elapsed
}
