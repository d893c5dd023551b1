package trace

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	defaultNumWorkers   = 2
	defaultQueueSize    = 256
	defaultWriteTimeout = 10 * time.Second
)

// Writer persists or forwards a finished trace. Implementations are
// best-effort; errors are logged and never surfaced to the request.
type Writer interface {
	WriteTrace(ctx context.Context, rec *Record) error
	Name() string
}

// SinkConfig configures the audit sink.
type SinkConfig struct {
	// Audit is the dedicated JSON logger for the trace audit file.
	Audit *zap.Logger

	// Writers are optional durable destinations (postgres, event bus).
	Writers []Writer

	// NumWorkers is the number of background workers (defaults to 2).
	NumWorkers int

	// QueueSize is the capacity of the buffered record channel (defaults
	// to 256). A full queue drops the record rather than blocking.
	QueueSize int

	Logger *zap.Logger
}

// Sink consumes finished traces off a bounded queue so the orchestration
// hot path never waits on audit I/O.
type Sink struct {
	config SinkConfig
	queue  chan *Record
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewSink creates a sink and starts its workers.
func NewSink(c SinkConfig) *Sink {
	if c.NumWorkers <= 0 {
		c.NumWorkers = defaultNumWorkers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	s := &Sink{
		config: c,
		queue:  make(chan *Record, c.QueueSize),
		logger: c.Logger,
	}

	s.wg.Add(c.NumWorkers)
	for i := 0; i < c.NumWorkers; i++ {
		go s.worker(i)
	}
	return s
}

// Enqueue submits a record without blocking. Returns false if the queue is
// full and the record was dropped.
func (s *Sink) Enqueue(rec *Record) bool {
	select {
	case s.queue <- rec:
		return true
	default:
		s.logger.Warn("trace sink queue full, record dropped",
			zap.String("request_id", rec.RequestID),
		)
		return false
	}
}

// Close stops the workers after draining in-flight records. Call during
// graceful shutdown after the HTTP server has stopped.
func (s *Sink) Close() {
	close(s.queue)
	s.wg.Wait()
}

func (s *Sink) worker(id int) {
	defer s.wg.Done()

	for rec := range s.queue {
		s.process(rec)
	}
	s.logger.Debug("trace sink worker stopped", zap.Int("worker_id", id))
}

func (s *Sink) process(rec *Record) {
	if s.config.Audit != nil {
		s.config.Audit.Info("orchestration trace",
			zap.String("request_id", rec.RequestID),
			zap.Time("started_at", rec.StartedAt),
			zap.Time("completed_at", rec.CompletedAt),
			zap.Int("rounds_executed", rec.RoundsExecuted),
			zap.Int("step_count", len(rec.Steps)),
			zap.Any("steps", rec.Steps),
		)
	}

	for _, w := range s.config.Writers {
		ctx, cancel := context.WithTimeout(context.Background(), defaultWriteTimeout)
		if err := w.WriteTrace(ctx, rec); err != nil {
			s.logger.Warn("trace write failed",
				zap.String("writer", w.Name()),
				zap.String("request_id", rec.RequestID),
				zap.Error(err),
			)
		}
		cancel()
	}
}
