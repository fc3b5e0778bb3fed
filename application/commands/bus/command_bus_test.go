package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pingCommand struct {
	Name string
}

func (c pingCommand) Validate() error {
	if c.Name == "" {
		return errors.New("name required")
	}
	return nil
}

type recordingMetrics struct {
	names []string
	errs  []error
}

func (m *recordingMetrics) RecordCommand(name string, _ time.Duration, err error) {
	m.names = append(m.names, name)
	m.errs = append(m.errs, err)
}

func pong() CommandHandler {
	return CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
		return "pong " + cmd.(pingCommand).Name, nil
	})
}

func TestCommandBus_Send(t *testing.T) {
	tests := []struct {
		name    string
		cmd     Command
		want    interface{}
		wantErr string
	}{
		{name: "dispatches to handler", cmd: pingCommand{Name: "a"}, want: "pong a"},
		{name: "validation runs first", cmd: pingCommand{}, wantErr: "name required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			b := NewCommandBus()
			require.NoError(t, b.Register(pingCommand{}, pong()))

			// Act
			got, err := b.Send(context.Background(), tt.cmd)

			// Assert
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommandBus_UnknownCommand(t *testing.T) {
	b := NewCommandBus()

	_, err := b.Send(context.Background(), pingCommand{Name: "a"})

	assert.ErrorIs(t, err, ErrHandlerNotFound)
}

func TestCommandBus_DuplicateRegistration(t *testing.T) {
	b := NewCommandBus()
	require.NoError(t, b.Register(pingCommand{}, pong()))

	err := b.Register(pingCommand{}, pong())

	assert.Error(t, err)
}

func TestCommandBus_MiddlewareOrder(t *testing.T) {
	// Arrange
	var order []string
	tag := func(name string) Middleware {
		return func(next CommandHandler) CommandHandler {
			return CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
				order = append(order, name)
				return next.Handle(ctx, cmd)
			})
		}
	}
	b := NewCommandBus(tag("outer"), tag("inner"), LoggingMiddleware(zap.NewNop()))
	require.NoError(t, b.Register(pingCommand{}, pong()))

	// Act
	_, err := b.Send(context.Background(), pingCommand{Name: "a"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestMetricsMiddleware(t *testing.T) {
	// Arrange
	metrics := &recordingMetrics{}
	boom := errors.New("boom")
	b := NewCommandBus(MetricsMiddleware(metrics))
	require.NoError(t, b.Register(pingCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
		return nil, boom
	})))

	// Act
	_, err := b.Send(context.Background(), pingCommand{Name: "a"})

	// Assert
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"pingCommand"}, metrics.names)
	assert.Equal(t, []error{boom}, metrics.errs)
}
