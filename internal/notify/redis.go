package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-redis/redis/v8"
)

// ChannelPrefix prefixes the pub/sub channel of every event.
const ChannelPrefix = "pos:"

// Publisher is the part of the redis client the notifier needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisNotifier publishes events on redis pub/sub, one channel per event name.
type RedisNotifier struct {
	client Publisher
}

func NewRedisNotifier(client Publisher) *RedisNotifier {
	return &RedisNotifier{client: client}
}

// NewRedisClient dials redis with the pool settings the POS uses.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DB:           0,
		PoolSize:     20,
		MinIdleConns: 2,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
}

func (n *RedisNotifier) Notify(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	if err := n.client.Publish(ctx, ChannelPrefix+evt.Name, body).Err(); err != nil {
		return errors.Wrapf(err, "redis publish %s", evt.Name)
	}
	return nil
}
