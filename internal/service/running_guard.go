package service

import (
	"context"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// Run guard — single-flight execution per send job
// ─────────────────────────────────────────────────────────────

// runGuard serializes job execution: a job that is still running cannot be
// started again. The zero value is ready to use.
type runGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// TryLock claims jobID for a run, returning false when the job already
// holds a claim. A true return obligates the caller to Unlock.
func (g *runGuard) TryLock(jobID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.running[jobID]; ok {
		return false
	}
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	g.running[jobID] = struct{}{}
	g.wg.Add(1)
	return true
}

// Unlock releases the claim taken by TryLock.
func (g *runGuard) Unlock(jobID string) {
	g.mu.Lock()
	delete(g.running, jobID)
	g.mu.Unlock()
	g.wg.Done()
}

// WaitAll blocks until every claimed run finishes or ctx expires.
func (g *runGuard) WaitAll(ctx context.Context) {
	idle := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(idle)
	}()
	select {
	case <-idle:
	case <-ctx.Done():
	}
}
