package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/tubesocial/internal/platform/api"
	"github.com/example/tubesocial/internal/platform/auth"
	"github.com/example/tubesocial/internal/platform/httpserver"
	"github.com/example/tubesocial/services/comments/internal/comments"
	"github.com/example/tubesocial/services/comments/internal/store"
)

const maxJSONBody = 1 << 20

// CommentService is the subset of *comments.Service the handlers call.
type CommentService interface {
	ListByVideo(ctx context.Context, videoID string, req store.PageRequest) (store.Page, error)
	ListByTweet(ctx context.Context, tweetID string, req store.PageRequest) (store.Page, error)
	AddComment(ctx context.Context, parent store.ParentRef, content, authorID string) (store.Comment, error)
	GetComment(ctx context.Context, commentID string) (store.Comment, error)
	UpdateContent(ctx context.Context, commentID, newContent, requesterID string) (store.Comment, error)
	DeleteComment(ctx context.Context, commentID, requesterID string) (comments.DeletionResult, error)
}

type contentRequest struct {
	Content string `json:"content"`
}

// writeServiceError maps a service error kind to an HTTP status. Store
// failures are logged and answered with a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	rid := httpserver.RequestIDFromContext(r.Context())
	var ce *comments.Error
	if !errors.As(err, &ce) {
		log.Error("comments request failed", zap.String("request_id", rid), zap.Error(err))
		api.Internal(w, rid)
		return
	}
	switch ce.Kind {
	case comments.KindInvalidIdentifier, comments.KindValidation:
		api.BadRequest(w, ce.Kind.String(), ce.Message, rid, nil)
	case comments.KindNotFound:
		api.NotFound(w, ce.Kind.String(), ce.Message, rid)
	case comments.KindForbidden:
		api.Forbidden(w, ce.Kind.String(), ce.Message, rid)
	default:
		log.Error("comments request failed",
			zap.String("request_id", rid),
			zap.String("kind", ce.Kind.String()),
			zap.Error(err))
		api.Internal(w, rid)
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok || userID == "" {
		api.Unauthorized(w, "UNAUTHORIZED", "authentication required", httpserver.RequestIDFromContext(r.Context()))
		return "", false
	}
	return userID, true
}

func decodeContent(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req contentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		api.BadRequest(w, "INVALID_JSON", "invalid JSON", httpserver.RequestIDFromContext(r.Context()), nil)
		return "", false
	}
	return req.Content, true
}

// parsePageRequest reads page and limit; absent values use the defaults.
func parsePageRequest(r *http.Request) (store.PageRequest, error) {
	var req store.PageRequest
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *int
	}{{"page", &req.Page}, {"limit", &req.Limit}} {
		raw := strings.TrimSpace(q.Get(p.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return store.PageRequest{}, &comments.Error{Kind: comments.KindValidation, Message: p.name + " must be an integer"}
		}
		*p.dst = n
	}
	return req, nil
}

func listHandler(log *zap.Logger, param string, list func(context.Context, string, store.PageRequest) (store.Page, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := parsePageRequest(r)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		page, err := list(r.Context(), strings.TrimSpace(chi.URLParam(r, param)), req)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, page)
	}
}

// ListVideoComments handles GET /v1/videos/{video_id}/comments
func ListVideoComments(svc CommentService, log *zap.Logger) http.HandlerFunc {
	return listHandler(log, "video_id", svc.ListByVideo)
}

// ListTweetComments handles GET /v1/tweets/{tweet_id}/comments
func ListTweetComments(svc CommentService, log *zap.Logger) http.HandlerFunc {
	return listHandler(log, "tweet_id", svc.ListByTweet)
}

func addHandler(svc CommentService, log *zap.Logger, param string, ref func(string) store.ParentRef) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		content, ok := decodeContent(w, r)
		if !ok {
			return
		}
		parent := ref(strings.TrimSpace(chi.URLParam(r, param)))
		c, err := svc.AddComment(r.Context(), parent, content, userID)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		log.Info("comment created",
			zap.String("comment_id", c.ID),
			zap.String("parent_type", string(parent.Kind)),
			zap.String("request_id", httpserver.RequestIDFromContext(r.Context())))
		api.WriteJSON(w, http.StatusCreated, c)
	}
}

// AddVideoComment handles POST /v1/videos/{video_id}/comments
func AddVideoComment(svc CommentService, log *zap.Logger) http.HandlerFunc {
	return addHandler(svc, log, "video_id", store.VideoRef)
}

// AddTweetComment handles POST /v1/tweets/{tweet_id}/comments
func AddTweetComment(svc CommentService, log *zap.Logger) http.HandlerFunc {
	return addHandler(svc, log, "tweet_id", store.TweetRef)
}

// GetComment handles GET /v1/comments/{comment_id}
func GetComment(svc CommentService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := svc.GetComment(r.Context(), strings.TrimSpace(chi.URLParam(r, "comment_id")))
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, c)
	}
}

// UpdateComment handles PATCH /v1/comments/{comment_id}
func UpdateComment(svc CommentService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		content, ok := decodeContent(w, r)
		if !ok {
			return
		}
		c, err := svc.UpdateContent(r.Context(), strings.TrimSpace(chi.URLParam(r, "comment_id")), content, userID)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, c)
	}
}

// DeleteComment handles DELETE /v1/comments/{comment_id}
func DeleteComment(svc CommentService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		res, err := svc.DeleteComment(r.Context(), strings.TrimSpace(chi.URLParam(r, "comment_id")), userID)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, res)
	}
}
