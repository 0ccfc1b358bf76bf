// Package jobs holds the background worker. The nightly reconciliation
// tasks recompute the derived balances (bank accounts from transactions,
// loans from installments) so a missed rollback or an out-of-band write can
// never leave drift in place for more than a day.
package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskBankReconcile recomputes bank balances from their transactions.
	TaskBankReconcile = "reconcile:bank"
	// TaskLoanReconcile recomputes loan paid/balance from installments.
	TaskLoanReconcile = "reconcile:loans"
)

// Reconciler recomputes derived state from its source records.
type Reconciler interface {
	Reconcile(ctx context.Context) error
}

// NewBankReconcileTask constructs the bank reconciliation task.
func NewBankReconcileTask() *asynq.Task {
	return asynq.NewTask(TaskBankReconcile, nil)
}

// NewLoanReconcileTask constructs the loan reconciliation task.
func NewLoanReconcileTask() *asynq.Task {
	return asynq.NewTask(TaskLoanReconcile, nil)
}

// HandleReconcile adapts a Reconciler to an Asynq handler.
func HandleReconcile(logger *slog.Logger, name string, svc Reconciler) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		if err := svc.Reconcile(ctx); err != nil {
			logger.Error("reconcile failed", slog.String("task", name), slog.Any("error", err))
			return err
		}
		logger.Info("reconcile completed", slog.String("task", name))
		return nil
	}
}
