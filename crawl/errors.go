package crawl

import (
	"errors"
	"fmt"
)

// ErrConfiguration is returned, wrapped, for invalid traversal parameters.
// It is always reported before any worker starts.
var ErrConfiguration = errors.New("crawl: invalid configuration")

// ValidateLimits checks the depth bound and worker count of a run.
func ValidateLimits(maxDepth, workers int) error {
	if maxDepth < 0 {
		return fmt.Errorf("%w: max depth cannot be negative (%d)", ErrConfiguration, maxDepth)
	}
	if workers < 1 {
		return fmt.Errorf("%w: worker count must be positive (%d)", ErrConfiguration, workers)
	}
	return nil
}
