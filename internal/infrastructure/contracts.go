package infrastructure

import (
	"context"
	"time"

	"github.com/andreyxaxa/kitchen-stream/internal/dto"
	"github.com/andreyxaxa/kitchen-stream/internal/entity"
	"github.com/andreyxaxa/kitchen-stream/pkg/redisstream"
)

type (
	// EventLog is the append-only ordered log with out-of-band key/value
	// storage for checkpoints and counters. All methods are safe for
	// concurrent use.
	EventLog interface {
		Append(ctx context.Context, stream string, fields map[string]string) (string, error)
		ReadSince(ctx context.Context, stream, lastID string, block time.Duration) (*redisstream.Message, error)
		IncrementCounter(ctx context.Context, key string) (int64, error)
		IncrementRetry(ctx context.Context, messageID string) (int64, error)
		GetValue(ctx context.Context, key string) (string, error)
		SetValue(ctx context.Context, key, value string, ttl time.Duration) error
	}

	// EventPublisher appends typed domain events to a stream.
	EventPublisher interface {
		Publish(ctx context.Context, stream string, event entity.Event) (string, error)
	}

	// InventoryClient is the synchronous RPC boundary of the inventory
	// service. Business-rule failures come back as data, not errors.
	InventoryClient interface {
		Menu(ctx context.Context) (*entity.Menu, error)
		ConsumeRecipes(ctx context.Context, req *dto.ConsumeRecipesRequest) (*dto.ConsumeRecipesResponse, error)
	}
)
