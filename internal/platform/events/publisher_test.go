package events

import (
	"testing"
)

func TestPublisher_NilIsNoop(t *testing.T) {
	var p *Publisher
	p.Publish(SubjectCommentCreated, "user-1", map[string]any{"comment_id": "c1"})
	if err := p.EnsureStream(); err != nil {
		t.Fatalf("expected nil error from nil publisher, got %v", err)
	}
}

func TestPublisher_StubWithoutJetStream(t *testing.T) {
	p := New(nil, nil)
	p.Publish(SubjectCommentDeleted, "user-1", nil)
	if err := p.EnsureStream(); err != nil {
		t.Fatalf("expected nil error from stub publisher, got %v", err)
	}
}
