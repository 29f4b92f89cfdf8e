package sim

// Clock tracks simulated time in minutes for a single run.
type Clock struct {
	minutes float64
}

// Advance moves the clock forward by step minutes.
func (c *Clock) Advance(step float64) { c.minutes += step }

// Reset rewinds to zero.
func (c *Clock) Reset() { c.minutes = 0 }

// Minutes returns the elapsed simulated time.
func (c *Clock) Minutes() float64 { return c.minutes }

// Seconds returns the elapsed simulated time in seconds.
func (c *Clock) Seconds() float64 { return c.minutes * 60 }
