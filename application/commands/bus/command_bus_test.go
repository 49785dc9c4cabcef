package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type noteCommand struct {
	text string
}

func (c noteCommand) Validate() error {
	if c.text == "" {
		return errors.New("text is required")
	}
	return nil
}

func TestCommandBus_SendRunsHandler(t *testing.T) {
	b := NewCommandBus()
	var got string
	require.NoError(t, b.Register(noteCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
		got = cmd.(noteCommand).text
		return nil
	})))

	require.NoError(t, b.Send(context.Background(), noteCommand{text: "hello"}))
	assert.Equal(t, "hello", got)
}

func TestCommandBus_ValidationFailsBeforeHandler(t *testing.T) {
	b := NewCommandBus()
	called := false
	require.NoError(t, b.Register(noteCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
		called = true
		return nil
	})))

	err := b.Send(context.Background(), noteCommand{})

	assert.ErrorContains(t, err, "text is required")
	assert.False(t, called)
}

func TestCommandBus_WrapsHandlerError(t *testing.T) {
	b := NewCommandBus()
	boom := errors.New("boom")
	require.NoError(t, b.Register(noteCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
		return boom
	})))

	err := b.Send(context.Background(), noteCommand{text: "x"})

	assert.ErrorIs(t, err, boom)
}

func TestCommandBus_UnregisteredAndDuplicate(t *testing.T) {
	b := NewCommandBus()
	h := CommandHandlerFunc(func(ctx context.Context, cmd Command) error { return nil })

	assert.Error(t, b.Send(context.Background(), noteCommand{text: "x"}))
	require.NoError(t, b.Register(noteCommand{}, h))
	assert.Error(t, b.Register(noteCommand{}, h))
}

func TestCommandBus_MiddlewareOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next CommandHandler) CommandHandler {
			return CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
				order = append(order, name)
				return next.Handle(ctx, cmd)
			})
		}
	}
	b := NewCommandBus(mark("outer"), mark("inner"))
	require.NoError(t, b.Register(noteCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
		order = append(order, "handler")
		return nil
	})))

	require.NoError(t, b.Send(context.Background(), noteCommand{text: "x"}))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	b := NewCommandBus(LoggingMiddleware(zap.New(core)))
	require.NoError(t, b.Register(noteCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
		if cmd.(noteCommand).text == "fail" {
			return errors.New("nope")
		}
		return nil
	})))

	require.NoError(t, b.Send(context.Background(), noteCommand{text: "ok"}))
	require.Error(t, b.Send(context.Background(), noteCommand{text: "fail"}))

	assert.Equal(t, 1, logs.FilterMessage("Command succeeded").Len())
	failed := logs.FilterMessage("Command failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "noteCommand", failed[0].ContextMap()["type"])
}
