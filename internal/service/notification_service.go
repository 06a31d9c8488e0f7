package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/trafficwatch/problem-service/internal/config"
	"github.com/trafficwatch/problem-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventProblemCreated, n.handleProblemCreated)
	n.dispatcher.Subscribe(events.EventProblemStatusChanged, n.handleProblemStatusChanged)
	n.dispatcher.Subscribe(events.EventProblemDeleted, n.handleProblemDeleted)
}

func (n *NotificationService) handleProblemCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("ProblemCreated", zap.String("problem_id", event.ProblemID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleProblemStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("ProblemStatusChanged", zap.String("problem_id", event.ProblemID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleProblemDeleted(ctx context.Context, event events.Event) error {
	n.logger.Info("ProblemDeleted", zap.String("problem_id", event.ProblemID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("problem_id", event.ProblemID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("problem_id", event.ProblemID),
		zap.String("event_type", string(event.Type)))
}
