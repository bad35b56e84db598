// Package notifications fans newly published posts out to live feed subscribers.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"penloft/internal/middleware"
	"penloft/internal/models"

	"github.com/redis/go-redis/v9"
)

// FeedChannel is the Redis channel carrying live feed events.
const FeedChannel = "penloft:feed"

// EventPostCreated is the feed event type emitted after a publish.
const EventPostCreated = "post_created"

// FeedEvent is the envelope written to subscribers.
type FeedEvent struct {
	Type    string    `json:"type"`
	Payload FeedPost  `json:"payload"`
	SentAt  time.Time `json:"sent_at"`
}

// FeedPost is the subset of a post pushed over the live feed.
type FeedPost struct {
	ID        uint      `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Tags      []string  `json:"tags"`
	ImageURL  string    `json:"image_url"`
	Author    string    `json:"author,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier publishes post events into Redis. Without Redis it hands events
// straight to the local hub so single-process deployments still get a feed.
type Notifier struct {
	rdb   *redis.Client
	local *Hub
}

// NewNotifier creates a Notifier. Either argument may be nil.
func NewNotifier(rdb *redis.Client, local *Hub) *Notifier {
	return &Notifier{rdb: rdb, local: local}
}

// NewFeedEvent wraps a post in a post_created envelope.
func NewFeedEvent(post models.Post) FeedEvent {
	fp := FeedPost{
		ID:        post.ID,
		Slug:      post.Slug,
		Title:     post.Title,
		Category:  string(post.Category),
		Tags:      post.Tags,
		ImageURL:  post.ImageURL,
		CreatedAt: post.CreatedAt,
	}
	if fp.Tags == nil {
		fp.Tags = []string{}
	}
	if post.Author != nil {
		fp.Author = post.Author.Username
	}
	return FeedEvent{Type: EventPostCreated, Payload: fp, SentAt: time.Now().UTC()}
}

// PostCreated publishes the event. Failures are logged, never returned:
// a publish must not fail because the feed is unavailable.
func (n *Notifier) PostCreated(ctx context.Context, post models.Post) {
	if err := n.Publish(ctx, NewFeedEvent(post)); err != nil {
		middleware.Logger.WarnContext(ctx, "feed publish failed",
			"slug", post.Slug,
			"error", err,
		)
	}
}

// Publish encodes and sends an event.
func (n *Notifier) Publish(ctx context.Context, event FeedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal feed event: %w", err)
	}
	if n.rdb == nil {
		if n.local != nil {
			n.local.BroadcastAll(string(payload))
		}
		return nil
	}
	return n.rdb.Publish(ctx, FeedChannel, payload).Err()
}

// StartFeedSubscriber subscribes to FeedChannel and calls onMessage for each
// payload until ctx is cancelled.
func (n *Notifier) StartFeedSubscriber(ctx context.Context, onMessage func(payload string)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, FeedChannel)
	// Wait for the subscription to be confirmed so no early publish is lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", FeedChannel, err)
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
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in feed subscriber",
								"panic", r,
								"stack", string(debug.Stack()),
							)
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()

	return nil
}
