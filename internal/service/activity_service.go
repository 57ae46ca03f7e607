package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/campus-fix/internal/events"
	"github.com/spec-kit/campus-fix/internal/observability"
)

// ActivityService records issue activity published by IssueService.
type ActivityService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewActivityService creates the service.
func NewActivityService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (a *ActivityService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventIssueRaised, a.handleIssueRaised)
	a.dispatcher.Subscribe(events.EventIssueStatusChanged, a.handleIssueStatusChanged)
}

func (a *ActivityService) handleIssueRaised(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("ticket_id", event.TicketID),
		zap.String("student_id", event.Actor.UserID),
	}
	if payload, ok := event.Payload.(events.IssueRaisedPayload); ok {
		fields = append(fields,
			zap.String("service_type", string(payload.ServiceType)),
			zap.String("location", payload.Location))
		a.metrics.RecordIssueRaised(string(payload.ServiceType))
	}
	a.logger.Info("IssueRaised", fields...)
	return nil
}

func (a *ActivityService) handleIssueStatusChanged(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("ticket_id", event.TicketID),
		zap.String("manager_id", event.Actor.UserID),
	}
	if payload, ok := event.Payload.(events.IssueStatusChangedPayload); ok {
		fields = append(fields,
			zap.String("old_status", string(payload.OldStatus)),
			zap.String("new_status", string(payload.NewStatus)))
		a.metrics.RecordStatusChange(string(payload.NewStatus))
	}
	a.logger.Info("IssueStatusChanged", fields...)
	return nil
}
