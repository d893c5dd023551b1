// Package eventbus publishes finished orchestration traces on NATS for
// downstream consumers. Publishing is best-effort; the service runs fine
// without a broker.
package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/frogcom/api/internal/trace"
)

// SubjectTraceFinished is the subject finished traces are published on.
const SubjectTraceFinished = "frogcom.trace.finished"

// Publisher is a NATS-backed trace.Writer.
type Publisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

// NewPublisher connects to NATS with a short timeout.
func NewPublisher(natsURL string, logger *zap.Logger) (*Publisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{nc: nc, logger: logger}, nil
}

// Name implements trace.Writer.
func (p *Publisher) Name() string { return "nats" }

// WriteTrace publishes the record as JSON. The context is unused: NATS
// publishes are buffered locally and never block on the broker.
func (p *Publisher) WriteTrace(_ context.Context, rec *trace.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return p.nc.Publish(SubjectTraceFinished, data)
}

// Connected reports whether the broker connection is up.
func (p *Publisher) Connected() bool {
	return p.nc.IsConnected()
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	if err := p.nc.Drain(); err != nil {
		p.logger.Warn("nats drain failed", zap.Error(err))
	}
}
