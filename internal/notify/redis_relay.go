package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RedisRelay fans notifications out to every instance subscribed to one
// Redis pub/sub channel.
type RedisRelay struct {
	client  *redis.Client
	channel string
	log     *logrus.Logger
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

func NewRedisRelay(opts RedisOptions, log *logrus.Logger) *RedisRelay {
	return &RedisRelay{
		client: redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
		channel: opts.Channel,
		log:     log,
	}
}

// Ping checks the Redis connection.
func (r *RedisRelay) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRelay) Publish(ctx context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	return r.client.Publish(ctx, r.channel, data).Err()
}

// Subscribe calls handle for every notification on the channel until ctx is
// done. Messages that do not decode are logged and skipped.
func (r *RedisRelay) Subscribe(ctx context.Context, handle func(Notification)) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			n, err := decodeNotification(msg.Payload)
			if err != nil {
				r.log.WithError(err).Warn("skipping malformed relay message")
				continue
			}
			handle(n)
		}
	}
}

func (r *RedisRelay) Close() error {
	return r.client.Close()
}

func decodeNotification(payload string) (Notification, error) {
	var n Notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return Notification{}, err
	}
	return n, nil
}
