package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/deptevents/event-registration/internal/config"
	"github.com/deptevents/event-registration/internal/events"
	"github.com/deptevents/event-registration/internal/i18n"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	translator *i18n.Translator
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, translator *i18n.Translator, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		translator: translator,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handlePasswordResetRequested)
	n.dispatcher.Subscribe(events.EventParticipationJoined, n.handleParticipationChanged)
	n.dispatcher.Subscribe(events.EventParticipationLeft, n.handleParticipationChanged)
	n.dispatcher.Subscribe(events.EventAttendanceMarked, n.handleParticipationChanged)
	n.dispatcher.Subscribe(events.EventEventFinished, n.handleEventFinished)
}

func (n *NotificationService) handleUserRegistered(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserRegisteredPayload)
	if !ok {
		n.logger.Warn("UserRegistered: unexpected payload", zap.String("event_id", event.ID))
		return nil
	}
	n.logger.Info("UserRegistered", zap.Int64("user_id", payload.UserID), zap.Time("expires_at", payload.ExpiresAt))
	body := n.message("email.verify.body", map[string]any{
		"Link":      payload.VerifyURL,
		"ExpiresAt": payload.ExpiresAt.Format(time.RFC3339),
	}, payload.VerifyURL)
	n.sendEmailNotificationStub(ctx, event, payload.Email, n.message("email.verify.subject", nil, "Verify your account"), body)
	return nil
}

func (n *NotificationService) handlePasswordResetRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordResetRequestedPayload)
	if !ok {
		n.logger.Warn("PasswordResetRequested: unexpected payload", zap.String("event_id", event.ID))
		return nil
	}
	n.logger.Info("PasswordResetRequested", zap.Int64("user_id", payload.UserID), zap.Time("expires_at", payload.ExpiresAt))
	body := n.message("email.reset.body", map[string]any{
		"Token":     payload.Token,
		"ExpiresAt": payload.ExpiresAt.Format(time.RFC3339),
	}, payload.Token)
	n.sendEmailNotificationStub(ctx, event, payload.Email, n.message("email.reset.subject", nil, "Reset your password"), body)
	return nil
}

func (n *NotificationService) handleParticipationChanged(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), eventIDField(event), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleEventFinished(ctx context.Context, event events.Event) error {
	n.logger.Info("EventFinished", eventIDField(event), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

// message renders key in the default language, or fallback without a translator.
func (n *NotificationService) message(key string, data map[string]any, fallback string) string {
	if n.translator == nil {
		return fallback
	}
	return n.translator.T(key, data)
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event, to, subject, body string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" || strings.TrimSpace(to) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		eventIDField(event),
		zap.String("event_type", string(event.Type)))
}

func eventIDField(event events.Event) zap.Field {
	if event.EventID == nil {
		return zap.Skip()
	}
	return zap.Int64("event_id", *event.EventID)
}
