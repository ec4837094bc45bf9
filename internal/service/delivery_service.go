package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/citizen-request-service/internal/config"
	"github.com/spec-kit/citizen-request-service/internal/events"
)

// DeliveryService pushes domain events to outbound channels.
type DeliveryService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewDeliveryService creates the service.
func NewDeliveryService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *DeliveryService {
	return &DeliveryService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (d *DeliveryService) RegisterHandlers() {
	if d.dispatcher == nil {
		return
	}
	d.dispatcher.Subscribe(events.EventRequestCreated, d.handleRequestCreated)
	d.dispatcher.Subscribe(events.EventRequestStatusChanged, d.handleRequestStatusChanged)
	d.dispatcher.Subscribe(events.EventRequestAssigned, d.handleRequestAssigned)
	d.dispatcher.Subscribe(events.EventWorkflowAdvanced, d.handleWorkflowAdvanced)
	d.dispatcher.Subscribe(events.EventNotificationAppended, d.handleNotificationAppended)
	d.dispatcher.Subscribe(events.EventCourierSent, d.handleCourierSent)
	d.dispatcher.Subscribe(events.EventBulkCompleted, d.handleBulkCompleted)
}

func (d *DeliveryService) handleRequestCreated(ctx context.Context, event events.Event) error {
	d.logger.Info("RequestCreated", zap.String("request_id", event.EntityID), zap.Any("payload", event.Payload))
	d.sendEmailStub(ctx, event)
	d.sendWebhookStub(ctx, event)
	return nil
}

func (d *DeliveryService) handleRequestStatusChanged(ctx context.Context, event events.Event) error {
	d.logger.Info("RequestStatusChanged", zap.String("request_id", event.EntityID), zap.Any("payload", event.Payload))
	d.sendWebhookStub(ctx, event)
	return nil
}

func (d *DeliveryService) handleRequestAssigned(ctx context.Context, event events.Event) error {
	d.logger.Info("RequestAssigned", zap.String("request_id", event.EntityID), zap.Any("payload", event.Payload))
	d.sendWebhookStub(ctx, event)
	return nil
}

func (d *DeliveryService) handleWorkflowAdvanced(ctx context.Context, event events.Event) error {
	d.logger.Info("WorkflowAdvanced", zap.String("request_id", event.EntityID), zap.Any("payload", event.Payload))
	d.sendWebhookStub(ctx, event)
	return nil
}

func (d *DeliveryService) handleNotificationAppended(ctx context.Context, event events.Event) error {
	d.logger.Info("NotificationAppended", zap.String("parent_id", event.EntityID), zap.Any("payload", event.Payload))
	d.sendEmailStub(ctx, event)
	return nil
}

func (d *DeliveryService) handleCourierSent(ctx context.Context, event events.Event) error {
	d.logger.Info("CourierSent", zap.String("courier_id", event.EntityID), zap.Any("payload", event.Payload))
	d.sendEmailStub(ctx, event)
	d.sendWebhookStub(ctx, event)
	return nil
}

func (d *DeliveryService) handleBulkCompleted(ctx context.Context, event events.Event) error {
	d.logger.Info("BulkCompleted", zap.String("entity_kind", event.EntityID), zap.Any("payload", event.Payload))
	d.sendWebhookStub(ctx, event)
	return nil
}

func (d *DeliveryService) sendEmailStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(d.cfg.EmailFrom) == "" {
		return
	}
	d.logger.Debug("sendEmailStub",
		zap.String("from", d.cfg.EmailFrom),
		zap.String("entity_id", event.EntityID),
		zap.String("event_type", string(event.Type)))
}

func (d *DeliveryService) sendWebhookStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(d.cfg.WebhookURL) == "" {
		return
	}
	d.logger.Debug("sendWebhookStub",
		zap.String("url", d.cfg.WebhookURL),
		zap.String("entity_id", event.EntityID),
		zap.String("event_type", string(event.Type)))
}
