package grpcapi

import (
	"context"

	"google.golang.org/grpc"

	"github.com/example/tubesocial/services/comments/internal/comments"
	"github.com/example/tubesocial/services/comments/internal/store"
)

const ServiceName = "comments.v1.CommentService"

type ListCommentsRequest struct {
	ParentType string `json:"parent_type"`
	ParentID   string `json:"parent_id"`
	Page       int    `json:"page,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

type AddCommentRequest struct {
	ParentType string `json:"parent_type"`
	ParentID   string `json:"parent_id"`
	Content    string `json:"content"`
}

type GetCommentRequest struct {
	CommentID string `json:"comment_id"`
}

type UpdateCommentRequest struct {
	CommentID string `json:"comment_id"`
	Content   string `json:"content"`
}

type DeleteCommentRequest struct {
	CommentID string `json:"comment_id"`
}

type CommentResponse struct {
	Comment store.Comment `json:"comment"`
}

type ListCommentsResponse = store.Page

type DeleteCommentResponse = comments.DeletionResult

// CommentServiceServer is implemented by *Server.
type CommentServiceServer interface {
	ListComments(context.Context, *ListCommentsRequest) (*ListCommentsResponse, error)
	AddComment(context.Context, *AddCommentRequest) (*CommentResponse, error)
	GetComment(context.Context, *GetCommentRequest) (*CommentResponse, error)
	UpdateComment(context.Context, *UpdateCommentRequest) (*CommentResponse, error)
	DeleteComment(context.Context, *DeleteCommentRequest) (*DeleteCommentResponse, error)
}

func RegisterCommentServiceServer(s grpc.ServiceRegistrar, srv CommentServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

// unary adapts a typed method into a grpc.MethodDesc handler.
func unary[Req any, Resp any](name string, call func(CommentServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CommentServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(CommentServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CommentServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListComments", CommentServiceServer.ListComments),
		unary("AddComment", CommentServiceServer.AddComment),
		unary("GetComment", CommentServiceServer.GetComment),
		unary("UpdateComment", CommentServiceServer.UpdateComment),
		unary("DeleteComment", CommentServiceServer.DeleteComment),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "comments/v1/comments.proto",
}

// Client calls CommentService over a connection using the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListComments(ctx context.Context, in *ListCommentsRequest, opts ...grpc.CallOption) (*ListCommentsResponse, error) {
	return invoke[ListCommentsResponse](ctx, c.cc, "ListComments", in, opts)
}

func (c *Client) AddComment(ctx context.Context, in *AddCommentRequest, opts ...grpc.CallOption) (*CommentResponse, error) {
	return invoke[CommentResponse](ctx, c.cc, "AddComment", in, opts)
}

func (c *Client) GetComment(ctx context.Context, in *GetCommentRequest, opts ...grpc.CallOption) (*CommentResponse, error) {
	return invoke[CommentResponse](ctx, c.cc, "GetComment", in, opts)
}

func (c *Client) UpdateComment(ctx context.Context, in *UpdateCommentRequest, opts ...grpc.CallOption) (*CommentResponse, error) {
	return invoke[CommentResponse](ctx, c.cc, "UpdateComment", in, opts)
}

func (c *Client) DeleteComment(ctx context.Context, in *DeleteCommentRequest, opts ...grpc.CallOption) (*DeleteCommentResponse, error) {
	return invoke[DeleteCommentResponse](ctx, c.cc, "DeleteComment", in, opts)
}
