package session

// Event is a typed state-change notification. The route guard, the UI,
// and test harnesses subscribe to these instead of polling or scraping
// logs.
type Event struct {
	Status     Status
	Generation uint64
	// Redirect is a navigation target the subscriber should honour,
	// e.g. the login surface with the return path attached. Empty when
	// no navigation is required.
	Redirect string
	// Err is the taxonomy error that caused the transition, if any.
	Err error
}

// Subscribe registers fn for every subsequent state change. Callbacks run
// on the goroutine performing the transition and must not block.
func (c *Controller) Subscribe(fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.subs = append(c.subs, fn)
}
