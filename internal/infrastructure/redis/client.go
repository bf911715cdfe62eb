package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	clientName  = "ledgersync"
	pingTimeout = 5 * time.Second
)

// NewClient connects to the idempotency store described by a redis:// URL.
// The connection is checked once, bounded by ctx or a short default.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if opts.ClientName == "" {
		opts.ClientName = clientName
	}

	client := redis.NewClient(opts)

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, pingTimeout)
		defer cancel()
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s db %d: %w", opts.Addr, opts.DB, err)
	}

	return client, nil
}
