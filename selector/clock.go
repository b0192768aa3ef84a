package selector

import (
	"time"

	"github.com/aristanetworks/goarista/monotime"
)

// epoch anchors monotime's raw monotonic duration onto a wall-clock
// time.Time once at package init, so Now() keeps returning ordinary
// time.Time values every caller (SelectNext, CanRetryNow, MarkGood)
// already accepts, while the differences between two Now() calls are
// driven entirely by the monotonic clock goarista/monotime reads
// directly from the OS, immune to a system-clock step adjustment
// shortening or extending a retry window mid-flight.
var epoch = time.Now().Add(-monotime.Now())

// Now returns the current time on the monotonic retry clock, for callers
// that pass it instead of time.Now() into SelectNext/CanRetryNow/MarkGood
// to get clock-adjustment-proof retry gating. The forwarding backend has
// no reconnect loop and does not use the selector's retry gating.
func Now() time.Time {
	return epoch.Add(monotime.Now())
}
