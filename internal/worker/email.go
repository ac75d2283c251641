package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aura-travel/backend/internal/email"
	"github.com/aura-travel/backend/internal/models"
	"github.com/aura-travel/backend/pkg/queue"
)

// EmailJobs is the queue side the email processor consumes.
type EmailJobs interface {
	DequeueEmail(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) (bool, error)
	DeadLetter(ctx context.Context, job *queue.Job) error
}

// ErrPermanent marks a job failure that a retry cannot fix.
var ErrPermanent = errors.New("permanent failure")

// Mailer delivers one rendered message. It reports false when delivery is disabled.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) (bool, error)
}

// EmailLogs records delivery outcomes.
type EmailLogs interface {
	Create(ctx context.Context, el *models.EmailLog) error
}

// EmailProcessor drains the email queue: send, record the outcome, retry on failure.
type EmailProcessor struct {
	jobs    EmailJobs
	mailer  Mailer
	logs    EmailLogs
	logger  *zap.Logger
	backoff time.Duration
	now     func() time.Time
}

// NewEmailProcessor creates an email job processor.
func NewEmailProcessor(jobs EmailJobs, mailer Mailer, logs EmailLogs, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{
		jobs:    jobs,
		mailer:  mailer,
		logs:    logs,
		logger:  logger,
		backoff: queue.RetryBackoff,
		now:     time.Now,
	}
}

// Process executes one email job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeEmail {
		return fmt.Errorf("%w: unknown job type %q", ErrPermanent, job.Type)
	}
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("%w: unmarshal payload: %w", ErrPermanent, err)
	}

	sent, err := p.mailer.Send(ctx, payload.RecipientEmail, payload.Subject, payload.BodyHTML)
	if err != nil {
		p.record(ctx, payload, job.Attempt, models.EmailLogStatusFailed, err)
		if errors.Is(err, email.ErrRecipient) {
			return fmt.Errorf("%w: %w", ErrPermanent, err)
		}
		return err
	}
	if !sent {
		p.logger.Debug("email delivery disabled", zap.String("job_id", job.ID), zap.String("email_type", payload.EmailType))
		return nil
	}
	p.record(ctx, payload, job.Attempt, models.EmailLogStatusSent, nil)
	p.logger.Info("email sent", zap.String("job_id", job.ID), zap.String("email_type", payload.EmailType))
	return nil
}

func (p *EmailProcessor) record(ctx context.Context, payload queue.EmailPayload, attempt int, status string, sendErr error) {
	el := &models.EmailLog{
		QuoteID:        payload.QuoteID,
		EmailType:      payload.EmailType,
		RecipientEmail: payload.RecipientEmail,
		Subject:        payload.Subject,
		Status:         status,
		Attempt:        attempt,
	}
	if status == models.EmailLogStatusSent {
		at := p.now()
		el.SentAt = &at
	}
	if sendErr != nil {
		el.ErrorMessage = sendErr.Error()
	}
	if err := p.logs.Create(ctx, el); err != nil {
		p.logger.Error("write email log", zap.String("recipient", payload.RecipientEmail), zap.Error(err))
	}
}

// fail handles a job whose Process returned cause. Permanent failures go straight to the DLQ;
// others are re-enqueued until they run out of retries. Both dead paths write a dead email log.
// It reports whether the job was re-enqueued.
func (p *EmailProcessor) fail(ctx context.Context, job *queue.Job, cause error) bool {
	reason := cause
	if errors.Is(cause, ErrPermanent) {
		if err := p.jobs.DeadLetter(ctx, job); err != nil {
			p.logger.Error("dead-letter failed", zap.String("job_id", job.ID), zap.Error(err))
			return false
		}
	} else {
		dead, err := p.jobs.Retry(ctx, job)
		if err != nil {
			p.logger.Error("retry enqueue failed", zap.String("job_id", job.ID), zap.Error(err))
			return false
		}
		if !dead {
			return true
		}
		reason = fmt.Errorf("gave up after %d attempts", job.Attempt)
	}
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return false
	}
	p.record(ctx, payload, job.Attempt, models.EmailLogStatusDead, reason)
	return false
}

// Run starts the worker loop until ctx is cancelled.
func (p *EmailProcessor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return nil
		default:
		}

		job, err := p.jobs.DequeueEmail(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if p.fail(ctx, job, err) {
				p.sleep(ctx)
			}
		}
	}
}

func (p *EmailProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
