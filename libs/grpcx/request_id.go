package grpcx

import (
	"context"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/appointmed/libs/httpx"
	"google.golang.org/grpc/metadata"
)

type requestIDKey struct{}

// RequestIDMetadataKey carries the request id in gRPC metadata. It matches
// the HTTP header so a gateway request keeps one id end to end.
const RequestIDMetadataKey = "x-request-id"

func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

func NewRequestID() string {
	return uuid.NewString()
}

// outgoingRequestID prefers the id of the HTTP request being served.
func outgoingRequestID(ctx context.Context) string {
	if id := httpx.RequestIDFromContext(ctx); id != "" {
		return id
	}
	return RequestIDFromContext(ctx)
}

func incomingRequestID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if vals := md.Get(RequestIDMetadataKey); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
