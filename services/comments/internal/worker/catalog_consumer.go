// Package worker consumes catalog events that affect comment bookkeeping.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/tubesocial/services/comments/internal/store"
)

const (
	SubjectVideoDeleted = "catalog.videos.deleted"
	SubjectTweetDeleted = "catalog.tweets.deleted"

	durableName = "comments_catalog_evictions"
)

// DeletionEvent is published by the catalog when a video or tweet is removed.
type DeletionEvent struct {
	EventID string `json:"event_id"`
	ID      string `json:"id"`
}

// Evictor drops cached existence for a parent id.
type Evictor interface {
	Evict(ctx context.Context, id string) error
}

type Options struct {
	// Evictors maps each parent kind to the cache to evict from. Kinds
	// without an entry are acknowledged and ignored.
	Evictors      map[store.ParentKind]Evictor
	BatchSize     int
	BatchInterval time.Duration
	Logger        *zap.Logger
}

// CatalogConsumer keeps the parent-existence cache consistent with catalog
// deletions.
type CatalogConsumer struct {
	evictors map[store.ParentKind]Evictor
	batch    int
	wait     time.Duration
	log      *zap.Logger
}

func NewCatalogConsumer(opts Options) *CatalogConsumer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.BatchInterval <= 0 {
		opts.BatchInterval = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &CatalogConsumer{
		evictors: opts.Evictors,
		batch:    opts.BatchSize,
		wait:     opts.BatchInterval,
		log:      opts.Logger,
	}
}

var errUnknownSubject = errors.New("unknown subject")

// ParseDeletion extracts the parent kind and id from a catalog message.
func ParseDeletion(subject string, data []byte) (store.ParentKind, string, error) {
	var kind store.ParentKind
	switch subject {
	case SubjectVideoDeleted:
		kind = store.ParentVideo
	case SubjectTweetDeleted:
		kind = store.ParentTweet
	default:
		return "", "", fmt.Errorf("%w: %s", errUnknownSubject, subject)
	}
	var ev DeletionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return "", "", fmt.Errorf("decode %s: %w", subject, err)
	}
	id, ok := store.CanonicalID(strings.TrimSpace(ev.ID))
	if !ok {
		return "", "", fmt.Errorf("decode %s: malformed id %q", subject, ev.ID)
	}
	return kind, id, nil
}

// Handle applies one message. It returns a non-nil error only when the
// message should be redelivered; malformed payloads are logged and dropped.
func (c *CatalogConsumer) Handle(ctx context.Context, subject string, data []byte) error {
	kind, id, err := ParseDeletion(subject, data)
	if err != nil {
		c.log.Warn("catalog_consumer: dropping message", zap.String("subject", subject), zap.Error(err))
		return nil
	}
	ev, ok := c.evictors[kind]
	if !ok || ev == nil {
		return nil
	}
	if err := ev.Evict(ctx, id); err != nil {
		return fmt.Errorf("evict %s %s: %w", kind, id, err)
	}
	c.log.Debug("catalog_consumer: evicted", zap.String("parent_type", string(kind)), zap.String("parent_id", id))
	return nil
}

// Start pulls catalog deletions until ctx is cancelled.
func (c *CatalogConsumer) Start(ctx context.Context, js nats.JetStreamContext) error {
	sub, err := js.PullSubscribe("catalog.*.deleted", durableName)
	if err != nil {
		return fmt.Errorf("catalog_consumer: subscribe: %w", err)
	}
	go c.loop(ctx, sub)
	return nil
}

func (c *CatalogConsumer) loop(ctx context.Context, sub *nats.Subscription) {
	defer func() { _ = sub.Unsubscribe() }()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgs, err := sub.Fetch(c.batch, nats.MaxWait(c.wait))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
				c.log.Warn("catalog_consumer: stopping", zap.Error(err))
				return
			}
			c.log.Error("catalog_consumer: fetch", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		for _, m := range msgs {
			if err := c.Handle(ctx, m.Subject, m.Data); err != nil {
				c.log.Error("catalog_consumer: handle", zap.String("subject", m.Subject), zap.Error(err))
				if err := m.Nak(); err != nil {
					c.log.Warn("catalog_consumer: nak", zap.Error(err))
				}
				continue
			}
			if err := m.Ack(); err != nil {
				c.log.Warn("catalog_consumer: ack", zap.Error(err))
			}
		}
	}
}
