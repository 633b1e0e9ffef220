package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := With(WithLogger(context.Background(), logger), "run", "r1")
	FromContext(ctx).Info("Hello.")

	assert.Contains(t, buf.String(), "msg=Hello.")
	assert.Contains(t, buf.String(), "run=r1")
	assert.Equal(t, slog.Default(), FromContext(context.Background()))
}
