package observability

import (
	"context"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// ReadinessChecks is ready only when every member is, and reports the first
// failure in order.
type ReadinessChecks []sharedobs.ReadinessChecker

// CheckReadiness implements sharedobs.ReadinessChecker.
func (c ReadinessChecks) CheckReadiness(ctx context.Context) error {
	for _, check := range c {
		if err := check.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}
