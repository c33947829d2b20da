package notify

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// MultiGateway fans a notification out to several gateways concurrently.
// Every gateway is attempted; the failures are joined.
type MultiGateway struct {
	gateways []Gateway
}

// NewMultiGateway combines gateways
func NewMultiGateway(gateways ...Gateway) *MultiGateway {
	return &MultiGateway{gateways: gateways}
}

// Notify delivers n through every gateway
func (m *MultiGateway) Notify(ctx context.Context, n Notification) error {
	var g errgroup.Group
	errs := make([]error, len(m.gateways))
	for i, gw := range m.gateways {
		i, gw := i, gw
		g.Go(func() error {
			errs[i] = gw.Notify(ctx, n)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// LogGateway writes notifications to the log. It is the gateway used when
// no delivery backend is configured.
type LogGateway struct {
	logger logrus.FieldLogger
}

// NewLogGateway creates a log gateway
func NewLogGateway(logger logrus.FieldLogger) *LogGateway {
	return &LogGateway{logger: logger}
}

// Notify logs n
func (l *LogGateway) Notify(ctx context.Context, n Notification) error {
	l.logger.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"kind":            n.Kind,
		"job_id":          n.JobID,
		"recipients":      len(n.Recipients),
	}).Info("Notification emitted")
	return nil
}
