package hazard

import "github.com/jonboulle/clockwork"

// clock is the package time source. Production uses the real clock; tests
// freeze it via SetClock for deterministic recency bonuses.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
