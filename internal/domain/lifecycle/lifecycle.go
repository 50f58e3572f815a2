// Package lifecycle holds shared process lifecycle constants.
package lifecycle

import "time"

// DefaultTimeout bounds graceful start/stop work (server shutdown, DB ping).
const DefaultTimeout = 10 * time.Second
