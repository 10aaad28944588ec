package monitoring

import (
	"context"
	"time"
)

// Pinger is satisfied by the repository factory.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// AddStorageCheck registers the storage backend as a readiness dependency.
func (h *HealthChecker) AddStorageCheck(backend string, p Pinger, timeout time.Duration) {
	h.AddCheck("storage:"+backend, p.HealthCheck, timeout)
}
