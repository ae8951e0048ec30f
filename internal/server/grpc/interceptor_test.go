package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/mygardenbook/gardenbook/internal/logging"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func newTestServer() *HealthServer {
	return NewHealthServer("", logging.Nop{}, &switchPinger{}, 0)
}

func TestRecoverInterceptor_ConvertsPanic(t *testing.T) {
	s := newTestServer()
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	resp, err := s.recoverInterceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		panic("boom")
	})
	assert.Nil(t, resp)
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestInterceptors_PassThrough(t *testing.T) {
	s := newTestServer()
	info := &grpc.UnaryServerInfo{FullMethod: "/pkg.Service/Other"}
	want := errors.New("handler failed")

	resp, err := s.loggingInterceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return "ok", want
	})
	assert.Equal(t, "ok", resp)
	assert.ErrorIs(t, err, want)

	resp, err = s.recoverInterceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return "fine", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "fine", resp)
}
