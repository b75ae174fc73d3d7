package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/urlmon/urlmon/internal/domain"
)

// HTTPChecker probes targets with a single GET request. The client carries
// the hard timeout; one check is one request, never retried.
type HTTPChecker struct {
	Client *http.Client
}

var _ Checker = (*HTTPChecker)(nil)

func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	return &HTTPChecker{
		Client: &http.Client{Timeout: timeout},
	}
}

func (h *HTTPChecker) Check(ctx context.Context, target domain.Target) domain.CheckResult {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
	if err != nil {
		return domain.CheckResult{
			TargetName: target.Name,
			Outcome:    domain.OutcomeError,
			Reason:     err.Error(),
			CheckedAt:  time.Now().UTC(),
		}
	}

	resp, err := h.Client.Do(req)
	latency := time.Since(start).Seconds() * 1000 // ms
	if err != nil {
		return classifyErr(target.Name, err, latency)
	}
	defer resp.Body.Close()

	res := domain.CheckResult{
		TargetName: target.Name,
		HTTPStatus: resp.StatusCode,
		LatencyMS:  latency,
		CheckedAt:  time.Now().UTC(),
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		res.Outcome = domain.OutcomeUp
	} else {
		res.Outcome = domain.OutcomeDown
		res.Reason = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return res
}

// classifyErr separates "answered too slowly" from "unreachable". Timeouts
// count as down; transport faults (DNS, refused connection, TLS) as error.
func classifyErr(name string, err error, latency float64) domain.CheckResult {
	res := domain.CheckResult{
		TargetName: name,
		LatencyMS:  latency,
		CheckedAt:  time.Now().UTC(),
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		res.Outcome = domain.OutcomeDown
		res.Reason = "timeout"
		return res
	}

	res.Outcome = domain.OutcomeError
	res.Reason = err.Error()
	return res
}
