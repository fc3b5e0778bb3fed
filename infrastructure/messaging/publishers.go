// Package messaging holds event publishers that do not need a broker.
package messaging

import (
	"context"

	"diary-backend/domain/events"

	"go.uber.org/zap"
)

// LogPublisher writes every event to the log. It backs local runs that have
// no event bus configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	p.logger.Info("Domain event",
		zap.String("eventType", event.GetEventType()),
		zap.String("aggregateID", event.GetAggregateID()),
		zap.String("userID", event.GetUserID()),
		zap.Time("timestamp", event.GetTimestamp()),
	)
	return nil
}

func (p *LogPublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	for _, event := range batch {
		_ = p.Publish(ctx, event)
	}
	return nil
}

// Publisher is the port both decorators wrap.
type Publisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// EventRecorder counts published events.
type EventRecorder interface {
	RecordEvent(eventType string, n int)
	RecordReport(reportType string)
}

// InstrumentedPublisher counts every event it forwards to next.
type InstrumentedPublisher struct {
	next    Publisher
	metrics EventRecorder
}

func NewInstrumentedPublisher(next Publisher, metrics EventRecorder) *InstrumentedPublisher {
	return &InstrumentedPublisher{next: next, metrics: metrics}
}

func (p *InstrumentedPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	if err := p.next.Publish(ctx, event); err != nil {
		return err
	}
	p.record(event)
	return nil
}

func (p *InstrumentedPublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	if err := p.next.PublishBatch(ctx, batch); err != nil {
		return err
	}
	for _, event := range batch {
		p.record(event)
	}
	return nil
}

func (p *InstrumentedPublisher) record(event events.DomainEvent) {
	switch e := event.(type) {
	case events.NodeCascadeDeleted:
		p.metrics.RecordEvent(e.GetEventType(), len(e.NodeIDs))
	case events.ReportGenerated:
		p.metrics.RecordEvent(e.GetEventType(), 1)
		p.metrics.RecordReport(e.ReportType)
	default:
		p.metrics.RecordEvent(event.GetEventType(), 1)
	}
}
