package transport

import (
	"strings"
	"time"
)

// shutdownTimeout bounds how long Shutdown waits for the send/receive
// loops to notice a half-close before forcing the connection closed,
// matching the original_source AsioSslStreamWrapper's default grace
// period (SPEC_FULL.md §4).
const shutdownTimeout = 5 * time.Second

var noDeadline time.Time

func timeAfter(d time.Duration) <-chan time.Time { return time.After(d) }

// isResetError reports whether err is the platform's "connection reset by
// peer" condition. net.OpError wraps this in a syscall.Errno whose string
// form is stable across platforms, so a substring check avoids an
// unportable build-tagged syscall import for one error string.
func isResetError(err error) bool {
	return strings.Contains(err.Error(), "connection reset by peer")
}
