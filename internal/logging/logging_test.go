package logging_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studio-scheduler/internal/logging"
)

func TestFromContextReturnsAttachedLogger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx := logging.ContextWithLogger(context.Background(), logger)
	require.Same(t, logger, logging.FromContext(ctx))
}

func TestFromContextWithoutLoggerReturnsNil(t *testing.T) {
	assert.Nil(t, logging.FromContext(context.Background()))
	assert.Nil(t, logging.FromContext(nil))
}

func TestContextWithLoggerIgnoresNil(t *testing.T) {
	ctx := logging.ContextWithLogger(context.Background(), nil)
	assert.Nil(t, logging.FromContext(ctx))
}
