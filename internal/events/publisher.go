package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/brightpath/enrolform-backend/internal/domain"
	"github.com/brightpath/enrolform-backend/internal/pkg/logger"
)

// Publisher delivers form lifecycle events to the notification and
// analytics modules. Delivery is best-effort from the engine's point of
// view: a publish failure is logged by the caller, never surfaced to the
// family submitting a form.
type Publisher interface {
	Publish(ctx context.Context, event domain.FormEvent) error
}

// NewEvent builds a lifecycle event payload with the current timestamp.
func NewEvent(name string, tenantID uuid.UUID, entityIDs map[string]uuid.UUID) domain.FormEvent {
	return domain.FormEvent{
		EventName: name,
		TenantID:  tenantID,
		EntityIDs: entityIDs,
		Timestamp: time.Now().UTC(),
	}
}

// LogPublisher records events to the application log. Used when Redis is
// not configured, and by tests.
type LogPublisher struct {
	log *logger.Logger
}

func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log.With("service", "LogEventPublisher")}
}

func (p *LogPublisher) Publish(_ context.Context, event domain.FormEvent) error {
	p.log.Info("form event", "event_name", event.EventName, "tenant_id", event.TenantID, "entity_ids", event.EntityIDs)
	return nil
}
