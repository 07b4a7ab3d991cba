package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"podcaster/internal/logging"
	"podcaster/internal/notifications"
	"podcaster/internal/queue"
	"podcaster/internal/services"
	"podcaster/internal/stage"
)

// Handler is the stage contract used by the execution helper.
type Handler interface {
	Prepare(context.Context, *queue.Item) error
	Execute(context.Context, *queue.Item) error
}

// Options controls stage execution and queue persistence behavior.
type Options struct {
	Logger     *slog.Logger
	Store      *queue.Store
	Notifier   notifications.Service
	Handler    Handler
	StageName  string
	Processing queue.Status
	Done       queue.Status
	Item       *queue.Item

	// Timeout bounds a single Execute attempt; zero means unbounded.
	Timeout time.Duration
	// RetryAttempts is the number of extra Execute attempts for retryable errors.
	RetryAttempts int
	// RetryDelay is the first backoff delay; it doubles per attempt.
	RetryDelay time.Duration
	// Sleep overrides the backoff wait.
	Sleep func(context.Context, time.Duration) error
}

// runner carries one stage execution for one item.
type runner struct {
	Options
	ctx    context.Context
	logger *slog.Logger
}

// Run moves the item to its processing status, runs Prepare and Execute
// (retrying retryable Execute errors) and records the done or failed outcome.
// On shutdown the item is left in its processing status for the next start
// to roll back.
func Run(ctx context.Context, opts Options) error {
	switch {
	case opts.Handler == nil:
		return fmt.Errorf("stage handler unavailable: %s", opts.StageName)
	case opts.Store == nil:
		return errors.New("queue store is required")
	case opts.Item == nil:
		return errors.New("queue item is required")
	}

	stageCtx := services.WithStage(services.WithItemID(ctx, opts.Item.ID), opts.StageName)
	r := &runner{Options: opts, ctx: stageCtx, logger: logging.WithContext(stageCtx, opts.Logger)}
	if aware, ok := opts.Handler.(stage.LoggerAware); ok {
		aware.SetLogger(r.logger)
	}

	started := time.Now()
	if err := r.begin(); err != nil {
		return err
	}
	if err := r.Handler.Prepare(r.ctx, r.Item); err != nil {
		return r.fail(err)
	}
	if err := r.Store.Update(r.ctx, r.Item); err != nil {
		return fmt.Errorf("persist stage preparation: %w", err)
	}
	if err := r.execute(); err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			r.logger.Debug("stage interrupted by shutdown")
			return err
		}
		return r.fail(err)
	}
	if err := r.finish(); err != nil {
		return err
	}
	logging.LogPerformance(r.logger, r.StageName, time.Since(started))
	return nil
}

func (r *runner) begin() error {
	logging.LogStep(r.logger, r.StageName, "started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(r.Processing)),
		logging.String(logging.FieldPodcast, r.Item.DisplayTitle()),
	)
	now := time.Now().UTC()
	label := StageLabel(r.Processing)
	r.Item.Status = r.Processing
	r.Item.ProgressStage = label
	r.Item.ProgressMessage = label + " started"
	r.Item.ProgressPercent = 0
	r.Item.ErrorMessage = ""
	r.Item.LastHeartbeat = &now
	if err := r.Store.Update(r.ctx, r.Item); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}
	return nil
}

func (r *runner) finish() error {
	// Handlers may pick a later status themselves (a skipped stage, for one).
	if r.Item.Status == r.Processing || r.Item.Status == "" {
		r.Item.Status = r.Done
	}
	r.Item.LastHeartbeat = nil
	if err := r.Store.Update(r.ctx, r.Item); err != nil {
		return fmt.Errorf("persist stage result: %w", err)
	}
	logging.LogStep(r.logger, r.StageName, "completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(r.Item.Status)),
		logging.String("progress_message", strings.TrimSpace(r.Item.ProgressMessage)),
	)
	return nil
}

// execute runs Execute up to RetryAttempts+1 times, doubling the delay
// between attempts.
func (r *runner) execute() error {
	attempts := max(r.RetryAttempts+1, 1)
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	delay := r.RetryDelay
	for attempt := 1; ; attempt++ {
		err := r.executeOnce()
		if err == nil || attempt >= attempts || !services.IsRetryable(err) || r.ctx.Err() != nil {
			return err
		}
		logging.WarnWithContext(r.logger, "stage attempt failed; retrying", "stage_retry",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", attempts),
			logging.Duration("delay", delay),
			logging.String(logging.FieldErrorHint, "transient failure, the stage will run again"),
			logging.String(logging.FieldImpact, "podcast delayed"),
			logging.Error(err),
		)
		if sleep(r.ctx, delay) != nil {
			return err
		}
		delay *= 2
	}
}

func (r *runner) executeOnce() error {
	if r.Timeout <= 0 {
		return r.Handler.Execute(r.ctx, r.Item)
	}
	ctx, cancel := context.WithTimeout(r.ctx, r.Timeout)
	defer cancel()
	err := r.Handler.Execute(ctx, r.Item)
	if err != nil && r.ctx.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, r.StageName, "execute",
			fmt.Sprintf("Stage exceeded %s", r.Timeout), err)
	}
	return err
}

// fail records stageErr on the item and publishes a stage failure event.
// Persistence ignores cancellation of the stage context.
func (r *runner) fail(stageErr error) error {
	details := services.Details(stageErr)
	message := strings.TrimSpace(details.Message)
	if message == "" {
		message = strings.TrimSpace(stageErr.Error())
	}
	r.Item.SetFailed(message)

	logging.LogStep(r.logger, r.StageName, "failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("error_kind", details.Kind),
		logging.String("error_message", message),
		logging.Error(stageErr),
	)
	ctx := context.WithoutCancel(r.ctx)
	if err := r.Store.Update(ctx, r.Item); err != nil {
		r.logger.Error("failed to persist stage failure", logging.Error(err))
	}
	if r.Notifier == nil {
		return stageErr
	}
	payload := notifications.Payload{"stage": r.StageName, "title": r.Item.DisplayTitle(), "error": message}
	if err := r.Notifier.Publish(ctx, notifications.EventStageFailed, payload); err != nil {
		r.logger.Debug("stage error notification failed", logging.Error(err))
	}
	return stageErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// StageLabel turns a status such as "narrating" into "Narrating".
func StageLabel(status queue.Status) string {
	// Casers keep state between calls, so each call gets its own.
	return cases.Title(language.English).String(strings.ReplaceAll(string(status), "_", " "))
}
