package store

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/uuid"
)

var (
	_ CommentStore = (*InMemoryCommentStore)(nil)
	_ CommentStore = (*PostgresCommentStore)(nil)
	_ CommentStore = (*MongoCommentStore)(nil)
)

func TestParentRef_Validate(t *testing.T) {
	id := uuid.NewString()
	tests := []struct {
		name    string
		ref     ParentRef
		wantErr error
	}{
		{"video", VideoRef(id), nil},
		{"tweet", TweetRef(id), nil},
		{"unknown kind", ParentRef{Kind: "post", ID: id}, ErrInvalidParent},
		{"empty id", VideoRef(""), ErrInvalidID},
		{"malformed id", TweetRef("not-a-uuid"), ErrInvalidID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ref.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCanonicalID(t *testing.T) {
	id := uuid.NewString()
	upper := strings.ToUpper(id)
	tests := []struct {
		name string
		in   string
		ok   bool
	}{
		{"canonical", id, true},
		{"uppercase", upper, true},
		{"braced", "{" + id + "}", true},
		{"urn", "urn:uuid:" + id, true},
		{"bare hex", strings.ReplaceAll(id, "-", ""), true},
		{"empty", "", false},
		{"garbage", "not-a-uuid", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CanonicalID(tt.in)
			if ok != tt.ok {
				t.Fatalf("CanonicalID(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && got != id {
				t.Fatalf("CanonicalID(%q) = %q, want %q", tt.in, got, id)
			}
		})
	}

	ref, err := VideoRef("urn:uuid:" + upper).Canonical()
	if err != nil || ref != VideoRef(id) {
		t.Fatalf("expected canonical video ref, got %+v (%v)", ref, err)
	}
}

func TestComment_JSONShape(t *testing.T) {
	vid := uuid.NewString()
	b, err := json.Marshal(Comment{ID: "c1", Content: "hi", AuthorID: "a1", Parent: VideoRef(vid)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["parent_type"] != "video" || m["video_id"] != vid || m["parent_id"] != vid {
		t.Fatalf("unexpected parent fields: %v", m)
	}
	if _, ok := m["tweet_id"]; ok {
		t.Fatalf("tweet_id must be absent for a video comment: %v", m)
	}
}

func TestInMemoryCommentStore_InsertAndFind(t *testing.T) {
	s := NewInMemoryCommentStore()
	ctx := context.Background()
	vid := uuid.NewString()

	c, err := s.Insert(ctx, Comment{Content: "hello", AuthorID: "user-a", Parent: VideoRef(vid)})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if c.ID == "" || c.CreatedAt.IsZero() || !c.UpdatedAt.Equal(c.CreatedAt) {
		t.Fatalf("expected id and timestamps, got %+v", c)
	}

	got, err := s.FindByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Parent != VideoRef(vid) || got.Content != "hello" {
		t.Fatalf("unexpected comment %+v", got)
	}

	if _, err := s.FindByID(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInMemoryCommentStore_ListByParent_InsertionOrder(t *testing.T) {
	s := NewInMemoryCommentStore()
	ctx := context.Background()
	vid, tid := uuid.NewString(), uuid.NewString()

	var ids []string
	for i := 0; i < 5; i++ {
		c, _ := s.Insert(ctx, Comment{Content: "v", AuthorID: "a", Parent: VideoRef(vid)})
		ids = append(ids, c.ID)
		_, _ = s.Insert(ctx, Comment{Content: "t", AuthorID: "a", Parent: TweetRef(tid)})
	}

	n, _ := s.CountByParent(ctx, VideoRef(vid))
	if n != 5 {
		t.Fatalf("expected 5 video comments, got %d", n)
	}

	got, err := s.ListByParent(ctx, VideoRef(vid), 1, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 comments, got %d", len(got))
	}
	for i, c := range got {
		if c.ID != ids[i+1] {
			t.Fatalf("position %d: expected %s, got %s", i, ids[i+1], c.ID)
		}
	}

	empty, _ := s.ListByParent(ctx, VideoRef(vid), 10, 3)
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice past the end, got %v", empty)
	}

	negative, err := s.ListByParent(ctx, VideoRef(vid), -20, 10)
	if err != nil || len(negative) != 0 {
		t.Fatalf("expected empty result for negative offset, got %v (%v)", negative, err)
	}
}

func TestInMemoryCommentStore_UpdateContent(t *testing.T) {
	s := NewInMemoryCommentStore()
	ctx := context.Background()
	c, _ := s.Insert(ctx, Comment{Content: "original", AuthorID: "user-a", Parent: TweetRef(uuid.NewString())})

	updated, err := s.UpdateContent(ctx, c.ID, "edited")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Content != "edited" || updated.AuthorID != "user-a" || updated.Parent != c.Parent {
		t.Fatalf("unexpected update result %+v", updated)
	}
	if updated.UpdatedAt.Before(c.UpdatedAt) {
		t.Fatal("updated_at must not go backwards")
	}

	if _, err := s.UpdateContent(ctx, uuid.NewString(), "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInMemoryCommentStore_DeleteByID(t *testing.T) {
	s := NewInMemoryCommentStore()
	ctx := context.Background()
	vid := uuid.NewString()
	keep, _ := s.Insert(ctx, Comment{Content: "keep", AuthorID: "user-a", Parent: VideoRef(vid)})
	drop, _ := s.Insert(ctx, Comment{Content: "drop", AuthorID: "user-a", Parent: VideoRef(vid)})

	n, err := s.Delete(ctx, drop.ID)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 deleted, got %d (%v)", n, err)
	}
	n, err = s.Delete(ctx, drop.ID)
	if err != nil || n != 0 {
		t.Fatalf("expected 0 deleted on second call, got %d (%v)", n, err)
	}
	if _, err := s.FindByID(ctx, keep.ID); err != nil {
		t.Fatalf("sibling comment by the same author must survive: %v", err)
	}
}

func TestPageRequest_Normalize(t *testing.T) {
	tests := []struct {
		in   PageRequest
		want PageRequest
	}{
		{PageRequest{}, PageRequest{Page: 1, Limit: 10}},
		{PageRequest{Page: -3, Limit: -1}, PageRequest{Page: 1, Limit: 10}},
		{PageRequest{Page: 4, Limit: 500}, PageRequest{Page: 4, Limit: 100}},
		{PageRequest{Page: 2, Limit: 25}, PageRequest{Page: 2, Limit: 25}},
		{PageRequest{Page: math.MaxInt, Limit: 100}, PageRequest{Page: MaxPage, Limit: 100}},
	}
	for _, tt := range tests {
		if got := tt.in.Normalize(); got != tt.want {
			t.Fatalf("Normalize(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestNewPage(t *testing.T) {
	p := NewPage(PageRequest{Page: 2, Limit: 10}, make([]Comment, 10), 25)
	if p.TotalPages != 3 || !p.HasNextPage || !p.HasPrevPage {
		t.Fatalf("unexpected page meta %+v", p)
	}
	if p.NextPage == nil || *p.NextPage != 3 || p.PrevPage == nil || *p.PrevPage != 1 {
		t.Fatalf("unexpected next/prev %v %v", p.NextPage, p.PrevPage)
	}
	if p.PagingCounter != 11 {
		t.Fatalf("expected paging counter 11, got %d", p.PagingCounter)
	}

	empty := NewPage(PageRequest{Page: 1, Limit: 10}, nil, 0)
	if empty.TotalItems != 0 || empty.TotalPages != 1 || empty.HasNextPage || empty.HasPrevPage {
		t.Fatalf("unexpected empty page %+v", empty)
	}
	if empty.Items == nil {
		t.Fatal("items must be an empty slice, not nil")
	}
}
