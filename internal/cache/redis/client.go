package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fraud-sms/detector/internal/history"
	"github.com/fraud-sms/detector/pkg/logger"
	"github.com/fraud-sms/detector/pkg/retry"
)

const keyPrefix = "fraud_sms:"

// Client is a DurableStore that keeps each record as one Redis string without expiry.
type Client struct {
	client   *redis.Client
	retryCfg retry.Config
}

var _ history.DurableStore = (*Client)(nil)

func NewClient(host string, port int, password string, db int) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Ping(ctx).Result()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", addr))

	retryCfg := retry.DefaultConfig()
	retryCfg.Name = "redis.load"
	retryCfg.Logger = logger.GetLogger()

	return &Client{client: client, retryCfg: retryCfg}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func recordKey(key string) string {
	return keyPrefix + key
}

func (c *Client) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := retry.DoWithResult(ctx, c.retryCfg, func() ([]byte, error) {
		data, err := c.client.Get(ctx, recordKey(key)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, retry.Permanent(history.ErrNotFound)
		}
		return data, err
	})
	if errors.Is(err, history.ErrNotFound) {
		return nil, history.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record: %w", err)
	}

	logger.Debug("Record loaded", zap.String("key", key), zap.Int("bytes", len(data)))
	return data, nil
}

func (c *Client) Save(ctx context.Context, key string, data []byte) error {
	err := c.client.Set(ctx, recordKey(key), data, 0).Err()
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}

	logger.Debug("Record saved", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, recordKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}
