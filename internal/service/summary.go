package service

import (
	"github.com/kursadbilgin/wsr-notifier/internal/domain"
	"go.uber.org/zap"
)

// Summarize tallies outcomes. It keeps failures in input order and does no I/O.
func Summarize(jobLabel string, outcomes []domain.Outcome) domain.Summary {
	summary := domain.Summary{Job: jobLabel}

	for _, outcome := range outcomes {
		switch outcome.Status {
		case domain.OutcomeSent:
			summary.Sent++
		case domain.OutcomeSkipped:
			summary.Skipped++
		default:
			summary.Failed++
			summary.Failures = append(summary.Failures, outcome)
		}
	}

	return summary
}

// LogSummary writes one line with the three counts, then one line per failure.
func LogSummary(logger *zap.Logger, summary domain.Summary) {
	if logger == nil {
		return
	}

	logger.Info("notification run summary",
		zap.String("job", summary.Job),
		zap.Int("sent", summary.Sent),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
	)

	for _, failure := range summary.Failures {
		logger.Warn("notification delivery failed",
			zap.String("job", summary.Job),
			zap.String("recipient", failure.RecipientName),
			zap.String("employeeId", failure.EmployeeID),
			zap.String("reason", failure.Reason),
			zap.Bool("subscriptionCleared", failure.SubscriptionCleared),
		)
	}
}
