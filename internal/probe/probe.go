package probe

import (
	"context"

	"github.com/urlmon/urlmon/internal/domain"
)

// Checker performs a single health check against one target. Failures are
// data, not errors: every path yields a CheckResult.
type Checker interface {
	Check(ctx context.Context, target domain.Target) domain.CheckResult
}
