package worker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/example/tubesocial/services/comments/internal/store"
)

type recordingEvictor struct {
	ids []string
	err error
}

func (r *recordingEvictor) Evict(_ context.Context, id string) error {
	if r.err != nil {
		return r.err
	}
	r.ids = append(r.ids, id)
	return nil
}

func TestParseDeletion(t *testing.T) {
	id := uuid.NewString()
	kind, got, err := ParseDeletion(SubjectVideoDeleted, []byte(`{"event_id":"e1","id":"`+id+`"}`))
	if err != nil || kind != store.ParentVideo || got != id {
		t.Fatalf("unexpected parse result %s %s %v", kind, got, err)
	}
	kind, _, err = ParseDeletion(SubjectTweetDeleted, []byte(`{"id":"`+id+`"}`))
	if err != nil || kind != store.ParentTweet {
		t.Fatalf("expected tweet kind, got %s %v", kind, err)
	}

	_, got, err = ParseDeletion(SubjectVideoDeleted, []byte(`{"id":"urn:uuid:`+strings.ToUpper(id)+`"}`))
	if err != nil || got != id {
		t.Fatalf("expected canonical id %s, got %q %v", id, got, err)
	}

	if _, _, err := ParseDeletion("catalog.users.deleted", []byte(`{}`)); !errors.Is(err, errUnknownSubject) {
		t.Fatalf("expected unknown subject error, got %v", err)
	}
	if _, _, err := ParseDeletion(SubjectVideoDeleted, []byte(`{`)); err == nil {
		t.Fatal("expected decode error")
	}
	if _, _, err := ParseDeletion(SubjectVideoDeleted, []byte(`{"id":"nope"}`)); err == nil {
		t.Fatal("expected malformed id error")
	}
}

func TestHandle_EvictsByKind(t *testing.T) {
	videos, tweets := &recordingEvictor{}, &recordingEvictor{}
	c := NewCatalogConsumer(Options{Evictors: map[store.ParentKind]Evictor{
		store.ParentVideo: videos,
		store.ParentTweet: tweets,
	}})
	id := uuid.NewString()

	if err := c.Handle(context.Background(), SubjectTweetDeleted, []byte(`{"id":"`+id+`"}`)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(tweets.ids) != 1 || tweets.ids[0] != id || len(videos.ids) != 0 {
		t.Fatalf("expected tweet eviction only, got videos=%v tweets=%v", videos.ids, tweets.ids)
	}
}

func TestHandle_DropsMalformed(t *testing.T) {
	ev := &recordingEvictor{}
	c := NewCatalogConsumer(Options{Evictors: map[store.ParentKind]Evictor{store.ParentVideo: ev}})
	if err := c.Handle(context.Background(), SubjectVideoDeleted, []byte(`not json`)); err != nil {
		t.Fatalf("malformed messages must be acknowledged, got %v", err)
	}
	if len(ev.ids) != 0 {
		t.Fatal("nothing should be evicted")
	}
}

func TestHandle_EvictFailureRequestsRedelivery(t *testing.T) {
	c := NewCatalogConsumer(Options{Evictors: map[store.ParentKind]Evictor{
		store.ParentVideo: &recordingEvictor{err: errors.New("redis down")},
	}})
	err := c.Handle(context.Background(), SubjectVideoDeleted, []byte(`{"id":"`+uuid.NewString()+`"}`))
	if err == nil {
		t.Fatal("expected error so the message is redelivered")
	}
}

func TestHandle_NoEvictorForKind(t *testing.T) {
	c := NewCatalogConsumer(Options{})
	if err := c.Handle(context.Background(), SubjectVideoDeleted, []byte(`{"id":"`+uuid.NewString()+`"}`)); err != nil {
		t.Fatalf("expected ack when no cache is configured, got %v", err)
	}
}
