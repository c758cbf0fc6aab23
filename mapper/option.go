package mapper

import (
	"time"

	"github.com/opensciencegrid/xrootd-monitoring-shoveler/correlate"
)

type config struct {
	store      *correlate.Store
	cleanDelay time.Duration
}

// Option configures a Mapper at construction time.
type Option func(*config)

// WithStore attaches an existing correlation store, instead of the default
// of creating and owning one for the Mapper's lifetime.
func WithStore(s *correlate.Store) Option {
	return func(c *config) { c.store = s }
}

// WithCleanDelay sets the deferred-eviction delay for a Mapper-owned store.
// It has no effect when combined with WithStore.
func WithCleanDelay(d time.Duration) Option {
	return func(c *config) { c.cleanDelay = d }
}
