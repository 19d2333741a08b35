package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ParentKind names the resource a comment is attached to.
type ParentKind string

const (
	ParentVideo ParentKind = "video"
	ParentTweet ParentKind = "tweet"
)

var (
	ErrNotFound      = errors.New("comment not found")
	ErrInvalidParent = errors.New("invalid parent reference")
	ErrInvalidID     = errors.New("malformed identifier")
)

// ParentRef binds a comment to exactly one video or one tweet.
type ParentRef struct {
	Kind ParentKind
	ID   string
}

func VideoRef(id string) ParentRef { return ParentRef{Kind: ParentVideo, ID: id} }
func TweetRef(id string) ParentRef { return ParentRef{Kind: ParentTweet, ID: id} }

func (p ParentRef) Validate() error {
	switch p.Kind {
	case ParentVideo, ParentTweet:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidParent, p.Kind)
	}
	if !ValidID(p.ID) {
		return fmt.Errorf("%w: %s id %q", ErrInvalidID, p.Kind, p.ID)
	}
	return nil
}

// Canonical validates p and returns it with its id in canonical form.
func (p ParentRef) Canonical() (ParentRef, error) {
	if err := p.Validate(); err != nil {
		return ParentRef{}, err
	}
	p.ID, _ = CanonicalID(p.ID)
	return p, nil
}

func (p ParentRef) String() string { return string(p.Kind) + ":" + p.ID }

// ValidID reports whether id is a well-formed identifier (a UUID).
func ValidID(id string) bool {
	_, ok := CanonicalID(id)
	return ok
}

// CanonicalID returns id as a lowercase hyphenated UUID. Uppercase, braced,
// urn:uuid: and bare hex spellings of the same UUID all map to one value.
func CanonicalID(id string) (string, bool) {
	if id == "" {
		return "", false
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return u.String(), true
}

// Comment is a single stored comment.
type Comment struct {
	ID        string
	Content   string
	AuthorID  string
	Parent    ParentRef
	CreatedAt time.Time
	UpdatedAt time.Time
}

type commentJSON struct {
	ID         string     `json:"id"`
	Content    string     `json:"content"`
	AuthorID   string     `json:"author_id"`
	ParentType ParentKind `json:"parent_type"`
	ParentID   string     `json:"parent_id"`
	VideoID    string     `json:"video_id,omitempty"`
	TweetID    string     `json:"tweet_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (c Comment) MarshalJSON() ([]byte, error) {
	out := commentJSON{
		ID:         c.ID,
		Content:    c.Content,
		AuthorID:   c.AuthorID,
		ParentType: c.Parent.Kind,
		ParentID:   c.Parent.ID,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
	switch c.Parent.Kind {
	case ParentVideo:
		out.VideoID = c.Parent.ID
	case ParentTweet:
		out.TweetID = c.Parent.ID
	}
	return json.Marshal(out)
}

func (c *Comment) UnmarshalJSON(b []byte) error {
	var in commentJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*c = Comment{
		ID:        in.ID,
		Content:   in.Content,
		AuthorID:  in.AuthorID,
		Parent:    ParentRef{Kind: in.ParentType, ID: in.ParentID},
		CreatedAt: in.CreatedAt,
		UpdatedAt: in.UpdatedAt,
	}
	return nil
}

// CommentStore is the persistence contract for comments. Implementations
// return ErrNotFound when the addressed record does not exist.
type CommentStore interface {
	// Insert assigns ID and timestamps and persists c.
	Insert(ctx context.Context, c Comment) (Comment, error)
	FindByID(ctx context.Context, id string) (Comment, error)
	// UpdateContent replaces content by id and always refreshes UpdatedAt.
	UpdateContent(ctx context.Context, id, content string) (Comment, error)
	// Delete removes the comment with the given id and reports how many
	// records were removed.
	Delete(ctx context.Context, id string) (int64, error)
	CountByParent(ctx context.Context, parent ParentRef) (int64, error)
	// ListByParent returns comments in insertion order.
	ListByParent(ctx context.Context, parent ParentRef, offset, limit int) ([]Comment, error)
	Ping(ctx context.Context) error
}
