// Package health serves the liveness and readiness probes of the store.
//
// A dependency is either required (the store cannot take orders without it)
// or optional (snapshots, event transport). Optional failures only degrade
// readiness, they never take the instance out of rotation.
package health

import (
	"context"
	"sync"
	"time"
)

const DefaultTimeout = 5 * time.Second

type Status string

const (
	StatusUp       Status = "up"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}

type CheckResult struct {
	Name     string `json:"name"`
	Status   Status `json:"status"`
	Message  string `json:"message,omitempty"`
	Optional bool   `json:"optional,omitempty"`
	Took     string `json:"took"`
}

type ReadinessResponse struct {
	Status Status        `json:"status"`
	Checks []CheckResult `json:"checks,omitempty"`
}

type entry struct {
	checker  Checker
	optional bool
}

type Registry struct {
	entries []entry
}

// NewRegistry registers required checkers.
func NewRegistry(checkers ...Checker) *Registry {
	r := &Registry{}
	for _, c := range checkers {
		r.entries = append(r.entries, entry{checker: c})
	}
	return r
}

// Optional registers checkers whose failure degrades readiness without failing it.
func (r *Registry) Optional(checkers ...Checker) *Registry {
	for _, c := range checkers {
		r.entries = append(r.entries, entry{checker: c, optional: true})
	}
	return r
}

// CheckAll runs every checker concurrently.
func (r *Registry) CheckAll(ctx context.Context) ReadinessResponse {
	if len(r.entries) == 0 {
		return ReadinessResponse{Status: StatusUp}
	}

	results := make([]CheckResult, len(r.entries))
	var wg sync.WaitGroup
	for i, e := range r.entries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started := time.Now()
			res := e.checker.Check(ctx)
			results[i] = CheckResult{
				Name:     e.checker.Name(),
				Status:   res.Status,
				Message:  res.Message,
				Optional: e.optional,
				Took:     time.Since(started).Round(time.Millisecond).String(),
			}
		}()
	}
	wg.Wait()

	overall := StatusUp
	for _, res := range results {
		if res.Status != StatusDown {
			continue
		}
		if !res.Optional {
			overall = StatusDown
			break
		}
		overall = StatusDegraded
	}
	return ReadinessResponse{Status: overall, Checks: results}
}
