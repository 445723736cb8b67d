package interceptors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestUnaryRecovery(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	t.Run("panic", func(t *testing.T) {
		interceptor := unaryRecoveryInterceptor(false)
		resp, err := interceptor(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
			panic("boom")
		})
		require.Nil(t, resp)
		require.Equal(t, codes.Internal, status.Code(err))
	})

	t.Run("passthrough", func(t *testing.T) {
		interceptor := unaryRecoveryInterceptor(false)
		wantErr := status.Error(codes.Unavailable, "down")
		resp, err := interceptor(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
			return "ok", wantErr
		})
		require.Equal(t, "ok", resp)
		require.ErrorIs(t, err, wantErr)
	})
}

func TestUnaryLogger(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	wantErr := errors.New("failed")

	_, err := unaryLogger(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		return nil, wantErr
	})
	require.ErrorIs(t, err, wantErr)
}
