package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisOptions configure NewRedis.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	Namespace string        // key prefix, e.g. "atlas:profile"
	TTL       time.Duration // zero keeps entries forever
	Logger    logrus.FieldLogger
}

// Redis is a backend shared by every instance pointed at the same server and
// namespace. Changes are announced on the "<namespace>:changes" channel.
type Redis struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
	log       logrus.FieldLogger
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	namespace := strings.TrimSpace(opts.Namespace)
	if namespace == "" {
		namespace = "atlas"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithFields(logrus.Fields{
			"address":  opts.Addr,
			"database": opts.DB,
		}).Error("failed to connect to redis")
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return &Redis{client: client, namespace: namespace, ttl: opts.TTL, log: log}, nil
}

// Get implements Backend.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

// Set implements Backend. Each write refreshes the namespace TTL.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete implements Backend.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Announce publishes change to the namespace channel.
func (r *Redis) Announce(ctx context.Context, change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("encode change: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel(), payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Watch subscribes to the namespace channel.
func (r *Redis) Watch(ctx context.Context, fn func(Change)) (func(), error) {
	sub := r.client.Subscribe(ctx, r.channel())
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return func() {}, fmt.Errorf("redis subscribe: %w", err)
	}

	messages := sub.Channel()
	go func() {
		for msg := range messages {
			var change Change
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				r.log.WithError(err).Debug("ignoring malformed change message")
				continue
			}
			fn(change)
		}
	}()
	return func() { _ = sub.Close() }, nil
}

func (r *Redis) key(key string) string {
	return r.namespace + ":" + key
}

func (r *Redis) channel() string {
	return r.namespace + ":changes"
}
