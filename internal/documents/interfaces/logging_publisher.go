package interfaces

import (
	"context"
	"errors"
	"log"

	"trade-ledger/internal/documents/application"
	"trade-ledger/internal/observability/metrics"
)

// LoggingPublisher logs document issued events.
type LoggingPublisher struct {
	logger *log.Logger
}

// NewLoggingPublisher constructs a logging publisher.
func NewLoggingPublisher(logger *log.Logger) *LoggingPublisher {
	if logger == nil {
		logger = log.Default()
	}
	return &LoggingPublisher{logger: logger}
}

// PublishDocumentIssued logs the event.
func (p *LoggingPublisher) PublishDocumentIssued(ctx context.Context, event application.DocumentIssued) error {
	_ = ctx
	if p == nil {
		return errors.New("documents publisher: nil publisher")
	}
	p.logger.Printf("document issued: kind=%s id=%s entity=%q date=%s total=%d paid=%d",
		event.Kind, event.DocumentID, event.EntityName, event.Date, event.TotalAmount, event.AmountPaid)
	metrics.IncPublish(metrics.ResultSuccess)
	return nil
}
