package correlate

import "github.com/pkg/errors"

// ErrNotFound is MapInfoError: the referenced identity is absent from the
// store, because it never arrived, or its deferred eviction already ran.
// Recovered locally by the caller; never surfaced to the event consumer.
var ErrNotFound = errors.New("correlate: identity not found")
