// Package lifecycle holds shared timeouts for start and stop hooks.
package lifecycle

import "time"

// DefaultTimeout bounds every fx OnStart/OnStop hook.
const DefaultTimeout = 10 * time.Second
