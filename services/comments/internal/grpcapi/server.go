package grpcapi

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/example/tubesocial/services/comments/internal/comments"
	"github.com/example/tubesocial/services/comments/internal/store"
)

// Service is the comment operation set the gRPC server exposes.
type Service interface {
	ListByVideo(ctx context.Context, videoID string, req store.PageRequest) (store.Page, error)
	ListByTweet(ctx context.Context, tweetID string, req store.PageRequest) (store.Page, error)
	AddComment(ctx context.Context, parent store.ParentRef, content, authorID string) (store.Comment, error)
	GetComment(ctx context.Context, commentID string) (store.Comment, error)
	UpdateContent(ctx context.Context, commentID, newContent, requesterID string) (store.Comment, error)
	DeleteComment(ctx context.Context, commentID, requesterID string) (comments.DeletionResult, error)
}

// Server implements CommentServiceServer. Callers identify themselves with
// a user_id metadata entry set by the gateway after token verification.
type Server struct {
	Comments Service
	Logger   *zap.Logger
}

func (s *Server) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func userIDFromMD(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", withInfo(codes.Unauthenticated, "UNAUTHENTICATED", "missing metadata")
	}
	vals := md.Get("user_id")
	if len(vals) == 0 || strings.TrimSpace(vals[0]) == "" {
		return "", withInfo(codes.Unauthenticated, "UNAUTHENTICATED", "missing user_id in metadata")
	}
	return strings.TrimSpace(vals[0]), nil
}

func withInfo(code codes.Code, reason, msg string) error {
	st := status.New(code, msg)
	st2, err := st.WithDetails(&errdetails.ErrorInfo{Reason: reason, Domain: "comments"})
	if err != nil {
		return st.Err()
	}
	return st2.Err()
}

// toStatus maps a service error to a gRPC status carrying ErrorInfo.
func (s *Server) toStatus(method string, err error) error {
	var ce *comments.Error
	if !errors.As(err, &ce) {
		s.log().Error("grpc: unexpected error", zap.String("method", method), zap.Error(err))
		return withInfo(codes.Internal, "INTERNAL", "internal error")
	}
	switch ce.Kind {
	case comments.KindInvalidIdentifier, comments.KindValidation:
		return withInfo(codes.InvalidArgument, ce.Kind.String(), ce.Message)
	case comments.KindNotFound:
		return withInfo(codes.NotFound, ce.Kind.String(), ce.Message)
	case comments.KindForbidden:
		return withInfo(codes.PermissionDenied, ce.Kind.String(), ce.Message)
	}
	s.log().Error("grpc: store failure", zap.String("method", method), zap.String("kind", ce.Kind.String()), zap.Error(err))
	return withInfo(codes.Internal, ce.Kind.String(), "internal error")
}

func parentRef(kind, id string) (store.ParentRef, error) {
	switch store.ParentKind(strings.ToLower(strings.TrimSpace(kind))) {
	case store.ParentVideo:
		return store.VideoRef(strings.TrimSpace(id)), nil
	case store.ParentTweet:
		return store.TweetRef(strings.TrimSpace(id)), nil
	}
	return store.ParentRef{}, withInfo(codes.InvalidArgument, comments.KindInvalidIdentifier.String(), "parent_type must be video or tweet")
}

func (s *Server) ListComments(ctx context.Context, req *ListCommentsRequest) (*ListCommentsResponse, error) {
	parent, err := parentRef(req.ParentType, req.ParentID)
	if err != nil {
		return nil, err
	}
	pr := store.PageRequest{Page: req.Page, Limit: req.Limit}
	var page store.Page
	if parent.Kind == store.ParentVideo {
		page, err = s.Comments.ListByVideo(ctx, parent.ID, pr)
	} else {
		page, err = s.Comments.ListByTweet(ctx, parent.ID, pr)
	}
	if err != nil {
		return nil, s.toStatus("ListComments", err)
	}
	return &page, nil
}

func (s *Server) AddComment(ctx context.Context, req *AddCommentRequest) (*CommentResponse, error) {
	userID, err := userIDFromMD(ctx)
	if err != nil {
		return nil, err
	}
	parent, err := parentRef(req.ParentType, req.ParentID)
	if err != nil {
		return nil, err
	}
	c, err := s.Comments.AddComment(ctx, parent, req.Content, userID)
	if err != nil {
		return nil, s.toStatus("AddComment", err)
	}
	return &CommentResponse{Comment: c}, nil
}

func (s *Server) GetComment(ctx context.Context, req *GetCommentRequest) (*CommentResponse, error) {
	c, err := s.Comments.GetComment(ctx, strings.TrimSpace(req.CommentID))
	if err != nil {
		return nil, s.toStatus("GetComment", err)
	}
	return &CommentResponse{Comment: c}, nil
}

func (s *Server) UpdateComment(ctx context.Context, req *UpdateCommentRequest) (*CommentResponse, error) {
	userID, err := userIDFromMD(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.Comments.UpdateContent(ctx, strings.TrimSpace(req.CommentID), req.Content, userID)
	if err != nil {
		return nil, s.toStatus("UpdateComment", err)
	}
	return &CommentResponse{Comment: c}, nil
}

func (s *Server) DeleteComment(ctx context.Context, req *DeleteCommentRequest) (*DeleteCommentResponse, error) {
	userID, err := userIDFromMD(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.Comments.DeleteComment(ctx, strings.TrimSpace(req.CommentID), userID)
	if err != nil {
		return nil, s.toStatus("DeleteComment", err)
	}
	return &res, nil
}
