package alloctrack

import "errors"

// ErrMemoryLimit is returned by Reserve when a charge would exceed the
// armed limit.
var ErrMemoryLimit = errors.New("alloctrack: memory limit exceeded")
