// Package notifications writes in-app notifications and hands matching emails to the worker queue.
package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-travel/backend/internal/models"
	"github.com/aura-travel/backend/pkg/queue"
)

// enqueueTimeout bounds how long a request waits on the email queue.
const enqueueTimeout = 2 * time.Second

// Store is the write side of the notification feed.
type Store interface {
	Insert(ctx context.Context, n *models.Notification) error
}

// EmailQueue accepts outbound email jobs.
type EmailQueue interface {
	EnqueueEmail(ctx context.Context, payload queue.EmailPayload) error
}

// Target is the principal a notification is for.
type Target struct {
	UserID uuid.UUID
	Email  string
}

// Message is the content of one notification and its email copy.
type Message struct {
	Title     string
	Body      string
	Link      string
	EmailType string
	QuoteID   *uuid.UUID
}

// Dispatcher writes the notification row, then queues the email without waiting on delivery.
type Dispatcher struct {
	store   Store
	emails  EmailQueue
	baseURL string
	logger  *zap.Logger
}

// NewDispatcher creates a dispatcher. emails may be nil, in which case only rows are written.
func NewDispatcher(store Store, emails EmailQueue, baseURL string, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{store: store, emails: emails, baseURL: baseURL, logger: logger}
}

// Notify writes one unread notification for t. Only the row write can fail the call;
// email problems are logged.
func (d *Dispatcher) Notify(ctx context.Context, t Target, m Message) error {
	n := &models.Notification{
		UserID:  t.UserID,
		Title:   m.Title,
		Message: m.Body,
		Link:    m.Link,
	}
	if err := d.store.Insert(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	d.sendEmail(ctx, t, m)
	return nil
}

func (d *Dispatcher) sendEmail(ctx context.Context, t Target, m Message) {
	if d.emails == nil || t.Email == "" {
		return
	}
	body, err := renderEmail(d.baseURL, m.Title, m.Body, m.Link)
	if err != nil {
		d.logger.Error("render notification email", zap.String("email_type", m.EmailType), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enqueueTimeout)
	defer cancel()
	err = d.emails.EnqueueEmail(ctx, queue.EmailPayload{
		EmailType:      m.EmailType,
		QuoteID:        m.QuoteID,
		RecipientEmail: t.Email,
		Subject:        m.Title,
		BodyHTML:       body,
	})
	if err != nil {
		d.logger.Warn("enqueue notification email",
			zap.String("email_type", m.EmailType),
			zap.String("recipient", t.Email),
			zap.Error(err),
		)
	}
}
