// Package comments implements the comment operations: listing a parent's
// comments, adding, reading, editing and deleting. Every mutation of an
// existing comment passes through Authorize exactly once.
package comments

import (
	"context"
	"errors"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/example/tubesocial/internal/platform/events"
	"github.com/example/tubesocial/services/comments/internal/catalog"
	"github.com/example/tubesocial/services/comments/internal/store"
)

// MaxContentRunes bounds comment length after sanitization.
const MaxContentRunes = 5000

// EventPublisher receives lifecycle events after successful mutations.
type EventPublisher interface {
	Publish(subject, userID string, props map[string]any)
}

// DeletionResult confirms a delete.
type DeletionResult struct {
	CommentID    string `json:"comment_id"`
	Deleted      bool   `json:"deleted"`
	DeletedCount int64  `json:"deleted_count"`
}

type Service struct {
	store    store.CommentStore
	parents  catalog.Checkers
	events   EventPublisher
	log      *zap.Logger
	sanitize *bluemonday.Policy
}

type Options struct {
	Store   store.CommentStore
	Parents catalog.Checkers
	Events  EventPublisher
	Logger  *zap.Logger
}

func NewService(opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	pub := opts.Events
	if pub == nil {
		pub = (*events.Publisher)(nil)
	}
	return &Service{
		store:    opts.Store,
		parents:  opts.Parents,
		events:   pub,
		log:      log,
		sanitize: bluemonday.StrictPolicy(),
	}
}

// Ping reports whether the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// cleanContent strips all markup and surrounding whitespace. Content is kept
// as plain text: the entities the sanitizer emits are decoded again so
// characters like & and < survive unchanged.
func (s *Service) cleanContent(raw string) (string, error) {
	content := strings.TrimSpace(html.UnescapeString(s.sanitize.Sanitize(raw)))
	if content == "" {
		return "", newError(KindValidation, "content must not be empty", nil)
	}
	if utf8.RuneCountInString(content) > MaxContentRunes {
		return "", newError(KindValidation, "content is too long", nil)
	}
	return content, nil
}

func validateCommentID(id string) (string, error) {
	c, ok := store.CanonicalID(id)
	if !ok {
		return "", newError(KindInvalidIdentifier, "malformed comment id", nil)
	}
	return c, nil
}

func validateParent(p store.ParentRef) (store.ParentRef, error) {
	c, err := p.Canonical()
	if err != nil {
		return store.ParentRef{}, newError(KindInvalidIdentifier, "malformed parent reference", err)
	}
	return c, nil
}

// ensureParent checks that the parent exists when a checker is registered
// for its kind.
func (s *Service) ensureParent(ctx context.Context, p store.ParentRef) error {
	checker, ok := s.parents.Lookup(p.Kind)
	if !ok {
		return nil
	}
	exists, err := checker.Exists(ctx, p.ID)
	if err != nil {
		return newError(KindQueryFailed, "parent lookup failed", err)
	}
	if !exists {
		return newError(KindNotFound, string(p.Kind)+" not found", nil)
	}
	return nil
}

// ListByVideo returns one page of the comments attached to a video.
func (s *Service) ListByVideo(ctx context.Context, videoID string, req store.PageRequest) (store.Page, error) {
	return s.list(ctx, store.VideoRef(videoID), req)
}

// ListByTweet returns one page of the comments attached to a tweet.
func (s *Service) ListByTweet(ctx context.Context, tweetID string, req store.PageRequest) (store.Page, error) {
	return s.list(ctx, store.TweetRef(tweetID), req)
}

func (s *Service) list(ctx context.Context, parent store.ParentRef, req store.PageRequest) (store.Page, error) {
	parent, err := validateParent(parent)
	if err != nil {
		return store.Page{}, err
	}
	if err := s.ensureParent(ctx, parent); err != nil {
		return store.Page{}, err
	}

	req = req.Normalize()
	total, err := s.store.CountByParent(ctx, parent)
	if err != nil {
		return store.Page{}, newError(KindQueryFailed, "count comments", err)
	}
	if int64(req.Offset()) >= total {
		return store.NewPage(req, nil, total), nil
	}
	items, err := s.store.ListByParent(ctx, parent, req.Offset(), req.Limit)
	if err != nil {
		return store.Page{}, newError(KindQueryFailed, "list comments", err)
	}
	return store.NewPage(req, items, total), nil
}

// AddComment attaches a new comment by authorID to parent.
func (s *Service) AddComment(ctx context.Context, parent store.ParentRef, content, authorID string) (store.Comment, error) {
	content, err := s.cleanContent(content)
	if err != nil {
		return store.Comment{}, err
	}
	parent, err = validateParent(parent)
	if err != nil {
		return store.Comment{}, err
	}
	authorID, ok := store.CanonicalID(authorID)
	if !ok {
		return store.Comment{}, newError(KindInvalidIdentifier, "malformed author id", nil)
	}
	if err := s.ensureParent(ctx, parent); err != nil {
		return store.Comment{}, err
	}

	c, err := s.store.Insert(ctx, store.Comment{Content: content, AuthorID: authorID, Parent: parent})
	if err != nil {
		s.log.Error("insert comment", zap.String("parent_type", string(parent.Kind)), zap.Error(err))
		return store.Comment{}, newError(KindPersistence, "create comment", err)
	}
	s.events.Publish(events.SubjectCommentCreated, authorID, map[string]any{
		"comment_id":  c.ID,
		"parent_type": string(parent.Kind),
		"parent_id":   parent.ID,
	})
	return c, nil
}

// GetComment loads a single comment by id.
func (s *Service) GetComment(ctx context.Context, commentID string) (store.Comment, error) {
	commentID, err := validateCommentID(commentID)
	if err != nil {
		return store.Comment{}, err
	}
	return s.load(ctx, commentID)
}

func (s *Service) load(ctx context.Context, commentID string) (store.Comment, error) {
	c, err := s.store.FindByID(ctx, commentID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Comment{}, newError(KindNotFound, "comment not found", nil)
	}
	if err != nil {
		return store.Comment{}, newError(KindQueryFailed, "load comment", err)
	}
	return c, nil
}

// loadAuthorized loads the comment and applies the authorization gate.
func (s *Service) loadAuthorized(ctx context.Context, commentID, requesterID string) (store.Comment, error) {
	c, err := s.load(ctx, commentID)
	if err != nil {
		return store.Comment{}, err
	}
	if Authorize(c, requesterID) != Allow {
		return store.Comment{}, newError(KindForbidden, "only the author may modify this comment", nil)
	}
	return c, nil
}

// UpdateContent replaces the content of a comment owned by requesterID.
// Repeating an update with the same content succeeds and refreshes UpdatedAt.
func (s *Service) UpdateContent(ctx context.Context, commentID, newContent, requesterID string) (store.Comment, error) {
	content, err := s.cleanContent(newContent)
	if err != nil {
		return store.Comment{}, err
	}
	commentID, err = validateCommentID(commentID)
	if err != nil {
		return store.Comment{}, err
	}
	requesterID = canonical(requesterID)
	if _, err := s.loadAuthorized(ctx, commentID, requesterID); err != nil {
		return store.Comment{}, err
	}

	updated, err := s.store.UpdateContent(ctx, commentID, content)
	if errors.Is(err, store.ErrNotFound) {
		// Deleted between the load and the update.
		return store.Comment{}, newError(KindNotFound, "comment not found", nil)
	}
	if err != nil {
		s.log.Error("update comment", zap.String("comment_id", commentID), zap.Error(err))
		return store.Comment{}, newError(KindPersistence, "update comment", err)
	}
	s.events.Publish(events.SubjectCommentUpdated, requesterID, map[string]any{
		"comment_id":  updated.ID,
		"parent_type": string(updated.Parent.Kind),
		"parent_id":   updated.Parent.ID,
	})
	return updated, nil
}

// DeleteComment removes a comment owned by requesterID. Only the addressed
// comment is ever removed.
func (s *Service) DeleteComment(ctx context.Context, commentID, requesterID string) (DeletionResult, error) {
	commentID, err := validateCommentID(commentID)
	if err != nil {
		return DeletionResult{}, err
	}
	requesterID = canonical(requesterID)
	c, err := s.loadAuthorized(ctx, commentID, requesterID)
	if err != nil {
		return DeletionResult{}, err
	}

	n, err := s.store.Delete(ctx, commentID)
	if err != nil {
		s.log.Error("delete comment", zap.String("comment_id", commentID), zap.Error(err))
		return DeletionResult{}, newError(KindPersistence, "delete comment", err)
	}
	if n == 0 {
		return DeletionResult{}, newError(KindNotFound, "comment not found", nil)
	}
	s.events.Publish(events.SubjectCommentDeleted, requesterID, map[string]any{
		"comment_id":  commentID,
		"parent_type": string(c.Parent.Kind),
		"parent_id":   c.Parent.ID,
	})
	return DeletionResult{CommentID: commentID, Deleted: true, DeletedCount: n}, nil
}
