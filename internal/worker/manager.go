package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"firesafety_reminders/internal/queue"
)

const (
	// DefaultWorkerCount is the default number of worker goroutines
	DefaultWorkerCount = 2

	// DefaultBatchSize is the number of messages to read per batch
	DefaultBatchSize = 10

	// DefaultBlockTimeout is how long to block waiting for new messages
	DefaultBlockTimeout = 5 * time.Second

	readErrorBackoff = time.Second
)

// Manager orchestrates worker goroutines that consume the alerts stream.
type Manager struct {
	consumer    queue.Consumer
	handler     *Handler
	log         *zap.Logger
	workerCount int
	batchSize   int64
	blockTime   time.Duration

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// ManagerConfig holds configuration for the worker manager.
type ManagerConfig struct {
	WorkerCount  int           // Number of worker goroutines
	BatchSize    int64         // Messages per read
	BlockTimeout time.Duration // Block time for XREADGROUP
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		WorkerCount:  DefaultWorkerCount,
		BatchSize:    DefaultBatchSize,
		BlockTimeout: DefaultBlockTimeout,
	}
}

// NewManager creates a new worker manager.
func NewManager(consumer queue.Consumer, handler *Handler, cfg ManagerConfig, log *zap.Logger) *Manager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}

	return &Manager{
		consumer:    consumer,
		handler:     handler,
		log:         log.Named("workers"),
		workerCount: cfg.WorkerCount,
		batchSize:   cfg.BatchSize,
		blockTime:   cfg.BlockTimeout,
	}
}

// Start ensures the consumer group exists and begins the worker goroutines.
// Call Stop() to gracefully shut down.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.consumer.EnsureGroup(ctx, queue.StreamAlerts, queue.ConsumerGroupAlerts); err != nil {
		return err
	}
	m.ctx, m.cancel = context.WithCancel(ctx)

	for i := 0; i < m.workerCount; i++ {
		workerID := i + 1
		m.wg.Add(1)
		go m.runWorker(workerID, consumerNameForWorker(workerID))
	}

	m.log.Info("Workers started",
		zap.Int("count", m.workerCount),
		zap.String("stream", queue.StreamAlerts),
		zap.String("group", queue.ConsumerGroupAlerts),
	)
	return nil
}

// Stop gracefully shuts down all workers.
// Blocks until all workers have finished.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
	m.log.Info("Workers stopped")
}

// runWorker is the main loop for a single worker goroutine.
func (m *Manager) runWorker(workerID int, consumerName string) {
	defer m.wg.Done()

	log := m.log.With(zap.Int("worker", workerID), zap.String("consumer", consumerName))

	// Messages delivered before a crash but never acked come first.
	m.processPending(log, consumerName)

	for m.ctx.Err() == nil {
		m.processMessages(log, consumerName)
	}
	log.Debug("Worker shutting down")
}

// processPending handles messages that were delivered but not acknowledged.
func (m *Manager) processPending(log *zap.Logger, consumerName string) {
	for m.ctx.Err() == nil {
		messages, err := m.consumer.ReadPending(m.ctx, queue.StreamAlerts, queue.ConsumerGroupAlerts, consumerName, m.batchSize)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Warn("Error reading pending messages", zap.Error(err))
			}
			return
		}
		if len(messages) == 0 {
			return
		}

		log.Info("Replaying pending messages", zap.Int("count", len(messages)))
		if !m.handleMessages(log, messages) {
			return
		}
	}
}

// processMessages reads and handles a batch of messages.
func (m *Manager) processMessages(log *zap.Logger, consumerName string) {
	messages, err := m.consumer.Read(
		m.ctx,
		queue.StreamAlerts,
		queue.ConsumerGroupAlerts,
		consumerName,
		m.batchSize,
		m.blockTime,
	)
	if err != nil {
		if m.ctx.Err() != nil {
			return
		}
		log.Warn("Error reading messages", zap.Error(err))
		select {
		case <-m.ctx.Done():
		case <-time.After(readErrorBackoff):
		}
		return
	}

	if len(messages) == 0 {
		return // Timeout, no messages
	}
	m.handleMessages(log, messages)
}

// handleMessages processes a batch and acknowledges each message once handled.
// Failed alerts are acked too; only a shutdown mid-batch leaves messages
// pending for replay. It reports whether every message was acked.
func (m *Manager) handleMessages(log *zap.Logger, messages []queue.Message) bool {
	for _, msg := range messages {
		if m.ctx.Err() != nil {
			return false
		}

		err := m.handler.HandleEvent(m.ctx, msg.Event)
		if err != nil {
			if m.ctx.Err() != nil {
				return false
			}
			log.Error("Handler error", zap.String("msg_id", msg.ID), zap.String("type", msg.Event.Type), zap.Error(err))
		}

		if err := m.consumer.Ack(m.ctx, queue.StreamAlerts, queue.ConsumerGroupAlerts, msg.ID); err != nil {
			log.Warn("Ack failed", zap.String("msg_id", msg.ID), zap.Error(err))
			return false
		}
	}
	return true
}

// consumerNameForWorker gives each worker a stable name so its pending list
// survives restarts.
func consumerNameForWorker(workerID int) string {
	return fmt.Sprintf("worker-%d", workerID)
}
