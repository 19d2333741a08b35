package comments

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/example/tubesocial/services/comments/internal/store"
)

func TestAuthorize(t *testing.T) {
	c := store.Comment{AuthorID: "author"}
	tests := []struct {
		requester string
		want      Decision
	}{
		{"author", Allow},
		{"other", Deny},
		{"", Deny},
	}
	for _, tt := range tests {
		if got := Authorize(c, tt.requester); got != tt.want {
			t.Fatalf("Authorize(%q) = %v, want %v", tt.requester, got, tt.want)
		}
	}
	if Authorize(store.Comment{}, "") != Deny {
		t.Fatal("empty author and requester must be denied")
	}
}

func TestAuthorize_UUIDSpellings(t *testing.T) {
	author := uuid.NewString()
	c := store.Comment{AuthorID: author}
	for _, requester := range []string{strings.ToUpper(author), "{" + author + "}", "urn:uuid:" + author} {
		if Authorize(c, requester) != Allow {
			t.Fatalf("expected %q to be recognised as the author", requester)
		}
	}
	if Authorize(c, uuid.NewString()) != Deny {
		t.Fatal("a different uuid must be denied")
	}
}

func TestError_IsAndKind(t *testing.T) {
	cause := errors.New("io")
	err := newError(KindPersistence, "write", cause)
	if !errors.Is(err, ErrPersistence) || !errors.Is(err, cause) {
		t.Fatalf("expected sentinel and cause to match: %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("unexpected sentinel match")
	}
	if KindOf(err) != KindPersistence || KindOf(cause) != 0 {
		t.Fatal("unexpected KindOf result")
	}
	if KindNotFound.String() != "NOT_FOUND" || KindInvalidIdentifier.String() != "INVALID_IDENTIFIER" {
		t.Fatal("unexpected kind codes")
	}
}
