package config

import (
	"os"
	"strings"
)

// OutboxDispatcherDisabled turns off in-process event publishing, e.g. when a
// dedicated dispatcher job owns the outbox table.
//
// Set via env:
// - OUTBOX_DISPATCHER_DISABLED=true
func OutboxDispatcherDisabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("OUTBOX_DISPATCHER_DISABLED")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
