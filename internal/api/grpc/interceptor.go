package grpc

import (
	"context"
	"time"

	"equiprent-backend/internal/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LoggingUnaryInterceptor logs every unary call with its status code and latency.
func LoggingUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		args := []any{"method", info.FullMethod, "code", code.String(), "duration_ms", time.Since(start).Milliseconds()}
		if code == codes.OK {
			logger.Debug("gRPC call", args...)
		} else {
			logger.Warn("gRPC call failed", append(args, "error", err)...)
		}
		return resp, err
	}
}
