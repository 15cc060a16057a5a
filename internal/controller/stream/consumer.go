// Package stream implements the order event consumer loop: a single
// long-running consumer per stream with checkpointed resume position,
// per-message retry with exponential backoff and dead-letter escalation.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyxaxa/kitchen-stream/config"
	"github.com/andreyxaxa/kitchen-stream/internal/entity"
	"github.com/andreyxaxa/kitchen-stream/internal/events"
	"github.com/andreyxaxa/kitchen-stream/internal/infrastructure"
	"github.com/andreyxaxa/kitchen-stream/internal/usecase"
	"github.com/andreyxaxa/kitchen-stream/pkg/logger"
	"github.com/andreyxaxa/kitchen-stream/pkg/redisstream"
	"github.com/andreyxaxa/kitchen-stream/pkg/types/errs"
)

const _deadLetterComment = "Moved to DLQ after exceeding retry limit"

type Consumer struct {
	log       infrastructure.EventLog
	publisher infrastructure.EventPublisher
	handler   usecase.OrderEventHandler
	logger    logger.Interface

	stream        string
	deadStream    string
	checkpointKey string

	retryBudget    int
	pollBlock      time.Duration
	idleDelay      time.Duration
	backoffUnit    time.Duration
	reconnectDelay time.Duration

	// checkpoint is the id of the last fully processed (or dead-lettered)
	// message; owned by the loop goroutine after Start.
	checkpoint string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(
	log infrastructure.EventLog,
	publisher infrastructure.EventPublisher,
	handler usecase.OrderEventHandler,
	l logger.Interface,
	stream string,
	deadStream string,
	checkpointKey string,
	cfg config.Consumer,
) *Consumer {
	return &Consumer{
		log:            log,
		publisher:      publisher,
		handler:        handler,
		logger:         l,
		stream:         stream,
		deadStream:     deadStream,
		checkpointKey:  checkpointKey,
		retryBudget:    cfg.RetryBudget,
		pollBlock:      cfg.PollBlock,
		idleDelay:      cfg.IdleDelay,
		backoffUnit:    cfg.BackoffUnit,
		reconnectDelay: cfg.ReconnectDelay,
	}
}

// Start loads the persisted checkpoint and launches the consumer loop. The
// loop runs until Shutdown; cancellation is checked once per iteration, never
// mid-processing.
func (c *Consumer) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("stream Consumer - Start - consumer already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	lastID, err := c.log.GetValue(c.ctx, c.checkpointKey)
	if err != nil {
		return fmt.Errorf("stream Consumer - Start - c.log.GetValue: %w", err)
	}
	if lastID == "" {
		lastID = redisstream.StartID
	}
	c.checkpoint = lastID

	c.logger.Info("stream consumer starting on %q from checkpoint %s", c.stream, c.checkpoint)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		for {
			select {
			case <-c.ctx.Done():
				return
			default:
				c.iterate()
			}
		}
	}()

	return nil
}

// iterate performs one poll-process-advance cycle.
func (c *Consumer) iterate() {
	msg, err := c.log.ReadSince(c.ctx, c.stream, c.checkpoint, c.pollBlock)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}

		// Transient infra fault: fixed delay and re-poll, retry counters
		// are not touched.
		c.logger.Error(err, "stream Consumer - iterate - c.log.ReadSince")
		c.sleep(c.reconnectDelay)

		return
	}

	if msg == nil {
		c.sleep(c.idleDelay)

		return
	}

	if err := c.process(msg); err != nil {
		c.handleFailure(msg, err)

		return
	}

	c.advance(msg.ID)
}

// process decodes the record and dispatches it by event type. An unknown
// event type is a failure for this message, not a silent drop.
func (c *Consumer) process(msg *redisstream.Message) error {
	event, err := events.Decode(msg.Fields)
	if err != nil {
		return fmt.Errorf("events.Decode: %w", err)
	}

	switch ev := event.(type) {
	case *entity.OrderPlaced:
		return c.handler.HandleOrderPlaced(c.ctx, ev)
	case *entity.OrderCanceled:
		return c.handler.HandleOrderCanceled(c.ctx, ev)
	default:
		return fmt.Errorf("dispatch %q: %w", event.EventType(), errs.ErrUnknownEvent)
	}
}

// handleFailure tracks the message's retry count and either backs off for a
// retry of the same message or escalates it to the dead-letter stream. The
// checkpoint advances only on escalation.
func (c *Consumer) handleFailure(msg *redisstream.Message, procErr error) {
	count, err := c.log.IncrementRetry(c.ctx, msg.ID)
	if err != nil {
		c.logger.Error(err, "stream Consumer - handleFailure - c.log.IncrementRetry")
		c.sleep(c.reconnectDelay)

		return
	}

	if count <= int64(c.retryBudget) {
		c.logger.Warn("processing of %s failed (attempt %d/%d): %v", msg.ID, count, c.retryBudget, procErr)
		c.sleep(time.Duration(1<<count) * c.backoffUnit)

		return
	}

	if err := c.escalate(msg, procErr); err != nil {
		// The poison message stays at the head of the stream; the next
		// iteration re-reads it and retries the escalation.
		c.logger.Error(err, "stream Consumer - handleFailure - c.escalate")
		c.sleep(c.reconnectDelay)

		return
	}

	c.logger.Warn("message %s moved to dead-letter stream %q", msg.ID, c.deadStream)

	c.advance(msg.ID)
}

// escalate publishes a DeadEvent carrying the original undecoded payload.
func (c *Consumer) escalate(msg *redisstream.Message, procErr error) error {
	raw, err := json.Marshal(msg.Fields)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	dead := entity.NewDeadEvent(
		fieldInt64(msg.Fields, events.FieldOrderID),
		int(fieldInt64(msg.Fields, events.FieldTableNo)),
		_deadLetterComment,
		msg.ID,
		string(raw),
		procErr.Error(),
	)

	if _, err := c.publisher.Publish(c.ctx, c.deadStream, dead); err != nil {
		return fmt.Errorf("c.publisher.Publish: %w", err)
	}

	return nil
}

// advance moves the checkpoint past id and persists it. Persistence failure
// is logged but does not rewind the in-memory position; after a restart the
// message is redelivered, which processing tolerates (at-least-once).
func (c *Consumer) advance(id string) {
	c.checkpoint = id

	if err := c.log.SetValue(c.ctx, c.checkpointKey, id, 0); err != nil {
		c.logger.Error(err, "stream Consumer - advance - c.log.SetValue")
	}
}

func (c *Consumer) sleep(d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-c.ctx.Done():
	case <-timer.C:
	}
}

func (c *Consumer) Shutdown(ctx context.Context) error {
	if !c.started.Load() {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})

	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return nil
	}
}

func fieldInt64(fields map[string]string, name string) int64 {
	v, err := strconv.ParseInt(fields[name], 10, 64)
	if err != nil {
		return 0
	}

	return v
}
