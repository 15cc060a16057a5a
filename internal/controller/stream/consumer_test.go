package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreyxaxa/kitchen-stream/config"
	"github.com/andreyxaxa/kitchen-stream/internal/entity"
	"github.com/andreyxaxa/kitchen-stream/internal/events"
	"github.com/andreyxaxa/kitchen-stream/internal/infrastructure"
	"github.com/andreyxaxa/kitchen-stream/pkg/redisstream"
	"github.com/andreyxaxa/kitchen-stream/pkg/types/errs"
)

type nopLogger struct{}

func (nopLogger) Debug(message interface{}, args ...interface{}) {}
func (nopLogger) Info(message string, args ...interface{})       {}
func (nopLogger) Warn(message string, args ...interface{})       {}
func (nopLogger) Error(message interface{}, args ...interface{}) {}
func (nopLogger) Fatal(message interface{}, args ...interface{}) {}

type appendRec struct {
	stream string
	fields map[string]string
}

// fakeLog is an in-memory EventLog; ids are lexicographically ordered.
type fakeLog struct {
	mu       sync.Mutex
	msgs     []*redisstream.Message
	values   map[string]string
	retries  map[string]int64
	appends  []appendRec
	readErrs int
	trace    []string
}

var _ infrastructure.EventLog = (*fakeLog)(nil)

func newFakeLog() *fakeLog {
	return &fakeLog{
		values:  map[string]string{},
		retries: map[string]int64{},
	}
}

func (f *fakeLog) Append(ctx context.Context, stream string, fields map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appends = append(f.appends, appendRec{stream: stream, fields: fields})
	f.trace = append(f.trace, "append")
	return fmt.Sprintf("9-%d", len(f.appends)), nil
}

func (f *fakeLog) ReadSince(ctx context.Context, stream, lastID string, block time.Duration) (*redisstream.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErrs > 0 {
		f.readErrs--
		return nil, fmt.Errorf("read: %w", errs.ErrBackendUnavailable)
	}
	for _, m := range f.msgs {
		if m.ID > lastID {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeLog) IncrementCounter(ctx context.Context, key string) (int64, error) {
	return 0, nil
}

func (f *fakeLog) IncrementRetry(ctx context.Context, messageID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retries[messageID]++
	f.trace = append(f.trace, "retry")
	return f.retries[messageID], nil
}

func (f *fakeLog) GetValue(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[key], nil
}

func (f *fakeLog) SetValue(ctx context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	f.trace = append(f.trace, "set:"+value)
	return nil
}

func (f *fakeLog) snapshot() (map[string]string, map[string]int64, []appendRec, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	values := make(map[string]string, len(f.values))
	for k, v := range f.values {
		values[k] = v
	}
	retries := make(map[string]int64, len(f.retries))
	for k, v := range f.retries {
		retries[k] = v
	}
	return values, retries, append([]appendRec(nil), f.appends...), append([]string(nil), f.trace...)
}

type fakeHandler struct {
	mu     sync.Mutex
	calls  int
	err    error
	onCall func()
}

func (f *fakeHandler) handle() error {
	f.mu.Lock()
	f.calls++
	if f.onCall != nil {
		f.onCall()
	}
	err := f.err
	f.mu.Unlock()
	return err
}

func (f *fakeHandler) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeHandler) HandleOrderPlaced(ctx context.Context, event *entity.OrderPlaced) error {
	return f.handle()
}

func (f *fakeHandler) HandleOrderCanceled(ctx context.Context, event *entity.OrderCanceled) error {
	return f.handle()
}

func testConfig() config.Consumer {
	return config.Consumer{
		RetryBudget:    3,
		PollBlock:      time.Millisecond,
		IdleDelay:      time.Millisecond,
		BackoffUnit:    2 * time.Millisecond,
		ReconnectDelay: time.Millisecond,
	}
}

func placedMessage(t *testing.T, id string, orderID int64) *redisstream.Message {
	t.Helper()

	fields, err := events.Encode(entity.NewOrderPlaced(orderID, 1, []map[string]int{{"Burger": 1}}, ""))
	require.NoError(t, err)

	return &redisstream.Message{ID: id, Fields: fields}
}

func startConsumer(t *testing.T, log *fakeLog, handler *fakeHandler) {
	t.Helper()

	publisher := &recordingPublisher{log: log}
	c := New(log, publisher, handler, nopLogger{}, "orders", "orders_dead", "checkpoint", testConfig())

	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = c.Shutdown(ctx)
	})
}

// recordingPublisher encodes through the real codec into the fake log.
type recordingPublisher struct {
	log *fakeLog
}

func (p *recordingPublisher) Publish(ctx context.Context, stream string, event entity.Event) (string, error) {
	fields, err := events.Encode(event)
	if err != nil {
		return "", err
	}
	return p.log.Append(ctx, stream, fields)
}

func TestConsumer_SuccessAdvancesCheckpoint(t *testing.T) {
	log := newFakeLog()
	log.msgs = []*redisstream.Message{placedMessage(t, "1-1", 1)}
	handler := &fakeHandler{}

	startConsumer(t, log, handler)

	require.Eventually(t, func() bool {
		values, _, _, _ := log.snapshot()
		return values["checkpoint"] == "1-1"
	}, time.Second, time.Millisecond)

	_, retries, appends, _ := log.snapshot()
	assert.Empty(t, retries)
	assert.Empty(t, appends)
	assert.Equal(t, 1, handler.callCount())
}

func TestConsumer_ResumesAfterPersistedCheckpoint(t *testing.T) {
	log := newFakeLog()
	log.values["checkpoint"] = "1-1"
	log.msgs = []*redisstream.Message{
		placedMessage(t, "1-1", 1),
		placedMessage(t, "2-2", 2),
	}
	handler := &fakeHandler{}

	startConsumer(t, log, handler)

	require.Eventually(t, func() bool {
		values, _, _, _ := log.snapshot()
		return values["checkpoint"] == "2-2"
	}, time.Second, time.Millisecond)

	assert.Equal(t, 1, handler.callCount(), "the already-processed message must not be redelivered")
}

func TestConsumer_PoisonMessageIsRetriedThenDeadLettered(t *testing.T) {
	log := newFakeLog()
	msg := placedMessage(t, "1-1", 1)
	log.msgs = []*redisstream.Message{msg}
	handler := &fakeHandler{err: errors.New("kitchen on fire")}

	start := time.Now()
	startConsumer(t, log, handler)

	require.Eventually(t, func() bool {
		values, _, _, _ := log.snapshot()
		return values["checkpoint"] == "1-1"
	}, 2*time.Second, time.Millisecond)

	_, retries, appends, trace := log.snapshot()

	// Initial attempt plus exactly retryBudget retries.
	assert.Equal(t, 4, handler.callCount())
	assert.Equal(t, int64(4), retries["1-1"])

	// Backoff 2, 4 and 8 units before escalation.
	assert.GreaterOrEqual(t, time.Since(start), 14*testConfig().BackoffUnit)

	// Exactly one DeadEvent on the dead-letter stream.
	require.Len(t, appends, 1)
	assert.Equal(t, "orders_dead", appends[0].stream)
	dead := appends[0].fields
	assert.Equal(t, entity.TypeDeadEvent, dead[events.FieldEventType])
	assert.Equal(t, "1-1", dead[events.FieldMessageID])
	assert.Equal(t, "1", dead[events.FieldOrderID])
	assert.Contains(t, dead[events.FieldOriginalMessage], "OrderPlaced")
	assert.Contains(t, dead[events.FieldError], "kitchen on fire")
	assert.Equal(t, "Moved to DLQ after exceeding retry limit", dead[events.FieldComments])

	// The checkpoint may only move after the dead-letter publish.
	require.NotEmpty(t, trace)
	assert.Equal(t, "set:1-1", trace[len(trace)-1])
	assert.Equal(t, "append", trace[len(trace)-2])
}

func TestConsumer_BackendFaultDoesNotTouchRetryCounters(t *testing.T) {
	log := newFakeLog()
	log.msgs = []*redisstream.Message{placedMessage(t, "1-1", 1)}
	log.readErrs = 3
	handler := &fakeHandler{}

	startConsumer(t, log, handler)

	require.Eventually(t, func() bool {
		values, _, _, _ := log.snapshot()
		return values["checkpoint"] == "1-1"
	}, time.Second, time.Millisecond)

	_, retries, appends, _ := log.snapshot()
	assert.Empty(t, retries, "infra faults are not poison messages")
	assert.Empty(t, appends)
}

func TestConsumer_UnknownEventTypeIsDeadLettered(t *testing.T) {
	log := newFakeLog()
	log.msgs = []*redisstream.Message{{
		ID: "1-1",
		Fields: map[string]string{
			events.FieldEventType: "OrderTeleported",
			events.FieldOrderID:   "6",
			events.FieldTableNo:   "2",
		},
	}}
	handler := &fakeHandler{}

	startConsumer(t, log, handler)

	require.Eventually(t, func() bool {
		_, _, appends, _ := log.snapshot()
		return len(appends) == 1
	}, 2*time.Second, time.Millisecond)

	_, _, appends, _ := log.snapshot()
	assert.Zero(t, handler.callCount(), "unknown events must not reach any handler")
	assert.Contains(t, appends[0].fields[events.FieldError], errs.ErrUnknownEvent.Error())
}
