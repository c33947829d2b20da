package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics holds OpenTelemetry metric instruments mirroring the
// Prometheus counters that matter to operators of an OTel pipeline.
type OTelMetrics struct {
	authzDecisions metric.Int64Counter
	notifications  metric.Int64Counter
}

// NewOTelMetrics creates instruments on the given meter, or on the global
// meter provider when meter is nil.
func NewOTelMetrics(meter metric.Meter) (*OTelMetrics, error) {
	if meter == nil {
		meter = otel.Meter("github.com/platinummonkey/jobboard")
	}

	m := &OTelMetrics{}
	var err error

	m.authzDecisions, err = meter.Int64Counter(
		"jobboard.authz.decisions",
		metric.WithDescription("Authorization decisions by action and outcome"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create authz decisions counter: %w", err)
	}

	m.notifications, err = meter.Int64Counter(
		"jobboard.notifications",
		metric.WithDescription("Job notifications by trigger and outcome"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notifications counter: %w", err)
	}

	return m, nil
}

func (m *OTelMetrics) recordAuthzDecision(action, outcome, reason string) {
	m.authzDecisions.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("outcome", outcome),
		attribute.String("reason", reason),
	))
}

func (m *OTelMetrics) recordNotification(kind, status string) {
	m.notifications.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("status", status),
	))
}
