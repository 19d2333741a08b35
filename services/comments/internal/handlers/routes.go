package handlers

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/tubesocial/internal/platform/auth"
)

// Routes holds the dependencies of the comments HTTP surface.
type Routes struct {
	Comments CommentService
	Verifier auth.JWTVerifier
	// Media is optional; POST /v1/media is only mounted when set.
	Media          MediaUploader
	MaxUploadBytes int64
	Logger         *zap.Logger
}

// Register mounts the comment routes on r. Reads are public, writes require
// a bearer token.
func (rt Routes) Register(r chi.Router) {
	log := rt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	maxUpload := rt.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}

	r.Get("/v1/videos/{video_id}/comments", ListVideoComments(rt.Comments, log))
	r.Get("/v1/tweets/{tweet_id}/comments", ListTweetComments(rt.Comments, log))
	r.Get("/v1/comments/{comment_id}", GetComment(rt.Comments, log))

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(rt.Verifier))
		r.Post("/v1/videos/{video_id}/comments", AddVideoComment(rt.Comments, log))
		r.Post("/v1/tweets/{tweet_id}/comments", AddTweetComment(rt.Comments, log))
		r.Patch("/v1/comments/{comment_id}", UpdateComment(rt.Comments, log))
		r.Delete("/v1/comments/{comment_id}", DeleteComment(rt.Comments, log))
		if rt.Media != nil {
			r.Post("/v1/media", UploadMedia(rt.Media, maxUpload, log))
		}
	})
}
