// Package notifications publishes blog post changes to Redis channels so
// other processes (feed builders, search indexers) can react to them.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"chronicle/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	// PostsChannel receives every successful create, update and delete.
	PostsChannel = "blog:posts"
	// PublishedChannel receives posts that just became publicly visible.
	PublishedChannel = "blog:posts:published"
)

// PostChange is the JSON payload published for a post write.
type PostChange struct {
	Operation  string    `json:"operation"`
	PostID     string    `json:"postId"`
	Slug       string    `json:"slug,omitempty"`
	Changes    []string  `json:"changes,omitempty"`
	Transition string    `json:"transition,omitempty"`
	State      string    `json:"state,omitempty"`
	At         time.Time `json:"at"`
}

// Notifier provides helpers to publish post changes into Redis channels
type Notifier struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
// A nil client turns every publish into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb, logger: observability.Logger}
}

// PublishPostChange sends change to PostsChannel, and to PublishedChannel as
// well when the write published the post.
func (n *Notifier) PublishPostChange(ctx context.Context, change PostChange) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := n.rdb.Publish(ctx, PostsChannel, payload).Err(); err != nil {
		return err
	}
	if change.Transition == "published" {
		return n.rdb.Publish(ctx, PublishedChannel, payload).Err()
	}
	return nil
}

// StartSubscriber subscribes to the post channels and calls onMessage for each
// decoded change until ctx is cancelled. Undecodable payloads are skipped.
func (n *Notifier) StartSubscriber(
	ctx context.Context, onMessage func(channel string, change PostChange),
) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, PostsChannel, PublishedChannel)
	// Wait for the subscription to be confirmed so no publish is missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var change PostChange
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					n.logger.WarnContext(ctx, "dropping malformed post change",
						slog.String("channel", msg.Channel),
						slog.String("error", err.Error()),
					)
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							n.logger.ErrorContext(ctx, "post change handler panicked",
								slog.String("channel", msg.Channel),
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onMessage(msg.Channel, change)
				}()
			}
		}
	}()

	return nil
}
