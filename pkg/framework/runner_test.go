package framework

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunMainStopsServices(t *testing.T) {
	stopped := make(chan struct{})
	service := RunnableFunc(func(ctx context.Context) error {
		<-ctx.Done()
		close(stopped)
		return ctx.Err()
	})
	main := RunnableFunc(func(context.Context) error {
		return errors.New("handshake failed")
	})
	err := NewRunner().RunMain(main, service)
	require.Error(t, err)
	require.Contains(t, err.Error(), "handshake failed")
	<-stopped
}

func TestRunMainCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	main := RunnableFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, NewRunnerWith(ctx).RunMain(main))
}
