package challenges

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/StackLine-App/pokerbase/pkg/logger"
)

// defaultExpirySpec runs the deadline sweep at the top of every hour.
const defaultExpirySpec = "0 * * * *"

// Runner periodically expires overdue challenges. It implements
// system.Service.
type Runner struct {
	svc  *Service
	log  *logger.Logger
	spec string
	cron *cron.Cron
}

// NewRunner builds the expiry runner. An empty spec uses the hourly default.
func NewRunner(svc *Service, spec string, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.NewDefault("challenge-runner")
	}
	if spec == "" {
		spec = defaultExpirySpec
	}
	return &Runner{svc: svc, log: log, spec: spec}
}

// Name implements system.Service.
func (r *Runner) Name() string { return "challenge-expiry" }

// Start schedules the sweep and runs one immediately so restarts do not
// leave stale challenges active until the next tick.
func (r *Runner) Start(ctx context.Context) error {
	r.cron = cron.New()
	if _, err := r.cron.AddFunc(r.spec, r.sweep); err != nil {
		return err
	}
	r.cron.Start()
	go r.sweep()
	r.log.WithField("spec", r.spec).Info("challenge expiry scheduled")
	return nil
}

// Stop halts the schedule, waiting for a running sweep to finish.
func (r *Runner) Stop(ctx context.Context) error {
	if r.cron == nil {
		return nil
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (r *Runner) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := r.svc.ExpireOverdue(ctx); err != nil {
		r.log.WithError(err).Error("challenge expiry sweep failed")
	}
}
