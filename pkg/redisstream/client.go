// Package redisstream wraps a redis client as an append-only, multi-consumer
// event log with out-of-band key/value storage for checkpoints and counters.
package redisstream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andreyxaxa/kitchen-stream/pkg/types/errs"
)

const (
	// StartID is the checkpoint sentinel meaning "beginning of the stream".
	StartID = "0-0"

	_defaultConnAttempts = 10
	_defaultConnTimeout  = time.Second

	_retryKeyPrefix  = "retry:"
	_retryCountField = "count"
)

// Message is one stream record: a totally ordered id plus flat string fields.
type Message struct {
	ID     string
	Fields map[string]string
}

type Client struct {
	connAttempts int
	connTimeout  time.Duration

	rdb *redis.Client
}

func New(ctx context.Context, addr string, db int, opts ...Option) (*Client, error) {
	c := &Client{
		connAttempts: _defaultConnAttempts,
		connTimeout:  _defaultConnTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	var err error

	for c.connAttempts > 0 {
		err = c.rdb.Ping(ctx).Err()
		if err == nil {
			break
		}

		log.Printf("Redis stream client is trying to connect, attempts left: %d", c.connAttempts)

		time.Sleep(c.connTimeout)

		c.connAttempts--
	}

	if err != nil {
		return nil, fmt.Errorf("redisstream - New - connAttempts == 0: %w", err)
	}

	return c, nil
}

// Append adds one record to the stream and returns its autogenerated id.
func (c *Client) Append(ctx context.Context, stream string, fields map[string]string) (string, error) {
	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = v
	}

	id, err := c.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("redisstream - Append - c.rdb.XAdd: %w", wrapConnErr(err))
	}

	return id, nil
}

// ReadSince returns the next record strictly after lastID, blocking up to
// block if none is available yet (0 blocks indefinitely). A nil message with
// a nil error means the wait timed out with nothing new.
func (c *Client) ReadSince(ctx context.Context, stream, lastID string, block time.Duration) (*Message, error) {
	res, err := c.rdb.XRead(ctx, &redis.XReadArgs{
		Streams: []string{stream, lastID},
		Count:   1,
		Block:   block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("redisstream - ReadSince - c.rdb.XRead: %w", wrapConnErr(err))
	}

	for _, str := range res {
		for _, msg := range str.Messages {
			fields := make(map[string]string, len(msg.Values))
			for k, v := range msg.Values {
				s, ok := v.(string)
				if !ok {
					s = fmt.Sprint(v)
				}
				fields[k] = s
			}

			return &Message{ID: msg.ID, Fields: fields}, nil
		}
	}

	return nil, nil
}

// IncrementCounter atomically increments a process-wide integer counter.
func (c *Client) IncrementCounter(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redisstream - IncrementCounter - c.rdb.Incr: %w", wrapConnErr(err))
	}

	return n, nil
}

// IncrementRetry atomically bumps the failed-attempt count for a message.
func (c *Client) IncrementRetry(ctx context.Context, messageID string) (int64, error) {
	n, err := c.rdb.HIncrBy(ctx, _retryKeyPrefix+messageID, _retryCountField, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("redisstream - IncrementRetry - c.rdb.HIncrBy: %w", wrapConnErr(err))
	}

	return n, nil
}

// GetValue returns the stored value for key, or "" if the key does not exist.
func (c *Client) GetValue(ctx context.Context, key string) (string, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}

		return "", fmt.Errorf("redisstream - GetValue - c.rdb.Get: %w", wrapConnErr(err))
	}

	return v, nil
}

// SetValue stores value under key; ttl == 0 means no expiry.
func (c *Client) SetValue(ctx context.Context, key, value string, ttl time.Duration) error {
	err := c.rdb.Set(ctx, key, value, ttl).Err()
	if err != nil {
		return fmt.Errorf("redisstream - SetValue - c.rdb.Set: %w", wrapConnErr(err))
	}

	return nil
}

func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// wrapConnErr tags connectivity failures so callers can tell a transient
// infra fault from a poison message.
func wrapConnErr(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", errs.ErrBackendUnavailable, err)
	}

	return err
}
