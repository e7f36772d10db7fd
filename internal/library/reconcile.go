// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Reconciler re-reads the favorites store on a cron schedule so a
// long-lived view converges on the store after silent failures.
type Reconciler struct {
	view    *View
	log     *log.Logger
	timeout time.Duration

	cron    *cron.Cron
	entryID cron.EntryID
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// NewReconciler returns a stopped reconciler for view. Each run is bounded
// by timeout (zero means no bound beyond the parent context).
func NewReconciler(view *View, logger *log.Logger, timeout time.Duration) *Reconciler {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Reconciler{
		view:    view,
		log:     logger,
		timeout: timeout,
		cron:    cron.New(),
	}
}

// Start schedules reconciliation. An empty schedule leaves the reconciler
// stopped. Cancelling ctx stops it. Schedules use the standard five-field
// syntax or descriptors such as "@every 5m".
func (r *Reconciler) Start(ctx context.Context, schedule string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running || schedule == "" {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	entryID, err := r.cron.AddFunc(schedule, func() { r.RunNow(runCtx) })
	if err != nil {
		cancel()
		return fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}
	r.entryID = entryID
	r.cancel = cancel
	r.cron.Start()
	r.running = true
	r.log.Printf("reconciler: started with schedule %q, next run %v", schedule, r.cron.Entry(entryID).Next.Format(time.RFC3339))

	go func() {
		<-runCtx.Done()
		r.Stop()
	}()
	return nil
}

// Stop halts the schedule and waits for a running reconciliation.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}
	<-r.cron.Stop().Done()
	r.cron.Remove(r.entryID)
	r.cancel()
	r.running = false
	r.log.Printf("reconciler: stopped")
}

// Running reports whether a schedule is active.
func (r *Reconciler) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// RunNow reconciles once, synchronously.
func (r *Reconciler) RunNow(ctx context.Context) Outcome {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	out := r.view.Reconcile(ctx)
	r.log.Printf("reconciler: %s", out)
	return out
}
