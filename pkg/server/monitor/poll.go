// Package monitor tracks poll-loop health for the health endpoint.
package monitor

import (
	"sync"
	"time"
)

// PollMonitor records the outcome of every poll tick. The monitor is
// healthy while ticks keep committing; a run of abandoned ticks or a long
// gap since the last commit degrades it.
type PollMonitor struct {
	mu                sync.RWMutex
	staleAfter        time.Duration
	lastSuccess       time.Time
	lastAttempt       time.Time
	consecutiveErrors int
	lastError         string
}

// NewPollMonitor creates a monitor that considers data stale when no tick
// has committed within staleAfter (typically a few poll intervals).
func NewPollMonitor(staleAfter time.Duration) *PollMonitor {
	return &PollMonitor{staleAfter: staleAfter}
}

// RecordSuccess records a committed tick.
func (pm *PollMonitor) RecordSuccess() {
	if pm == nil {
		return
	}
	pm.mu.Lock()
	defer pm.mu.Unlock()
	now := time.Now()
	pm.lastSuccess = now
	pm.lastAttempt = now
	pm.consecutiveErrors = 0
	pm.lastError = ""
}

// RecordFailure records an abandoned tick or a failed snapshot write.
func (pm *PollMonitor) RecordFailure(err error) {
	if pm == nil {
		return
	}
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.lastAttempt = time.Now()
	pm.consecutiveErrors++
	if err != nil {
		pm.lastError = err.Error()
	}
}

// IsHealthy reports whether polling is keeping the data fresh. A monitor
// that has never seen a tick is still healthy: the first tick may simply
// not have fired yet.
func (pm *PollMonitor) IsHealthy() bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.healthyLocked()
}

func (pm *PollMonitor) healthyLocked() bool {
	if pm.consecutiveErrors > 3 {
		return false
	}
	if !pm.lastSuccess.IsZero() && pm.staleAfter > 0 && time.Since(pm.lastSuccess) > pm.staleAfter {
		return false
	}
	if pm.lastSuccess.IsZero() && pm.consecutiveErrors > 0 {
		return false
	}
	return true
}

// PollStatus is the health-endpoint view of the poll loop.
type PollStatus struct {
	Healthy           bool   `json:"healthy"`
	LastSuccess       string `json:"last_success,omitempty"`
	TimeSinceSuccess  string `json:"time_since_success,omitempty"`
	LastAttempt       string `json:"last_attempt,omitempty"`
	ConsecutiveErrors int    `json:"consecutive_errors,omitempty"`
	LastError         string `json:"last_error,omitempty"`
}

// Status returns the current poll status for health checks.
func (pm *PollMonitor) Status() PollStatus {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	status := PollStatus{Healthy: pm.healthyLocked()}
	if !pm.lastSuccess.IsZero() {
		status.LastSuccess = pm.lastSuccess.Format(time.RFC3339)
		status.TimeSinceSuccess = time.Since(pm.lastSuccess).String()
	}
	if !pm.lastAttempt.IsZero() {
		status.LastAttempt = pm.lastAttempt.Format(time.RFC3339)
	}
	if pm.consecutiveErrors > 0 {
		status.ConsecutiveErrors = pm.consecutiveErrors
		status.LastError = pm.lastError
	}
	return status
}
