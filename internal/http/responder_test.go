package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/studio-scheduler/internal/logging"
)

func TestWriteErrorUsesOwnLoggerWithoutRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	r := newResponder(slog.New(slog.NewTextHandler(&buf, nil)))

	rec := httptest.NewRecorder()
	r.writeError(context.Background(), rec, http.StatusInternalServerError, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), "request failed")
}

func TestWriteErrorPrefersRequestLogger(t *testing.T) {
	var own, scoped bytes.Buffer
	r := newResponder(slog.New(slog.NewTextHandler(&own, nil)))
	ctx := logging.ContextWithLogger(context.Background(),
		slog.New(slog.NewTextHandler(&scoped, nil)))

	rec := httptest.NewRecorder()
	r.writeError(ctx, rec, http.StatusInternalServerError, errors.New("boom"))

	assert.Empty(t, own.String())
	assert.Contains(t, scoped.String(), "request failed")
}
