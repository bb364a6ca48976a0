package cmdlog

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"threadloom/internal/logging"
)

func TestRunLogsOutcome(t *testing.T) {
	var buf bytes.Buffer
	logging.SetOutput(&buf)

	assert.NoError(t, Run("show", func() error { return nil }))
	assert.Contains(t, buf.String(), `"show_ok"`)

	boom := errors.New("boom")
	assert.ErrorIs(t, Run("show", func() error { return boom }), boom)
	assert.Contains(t, buf.String(), `"show_error"`)
	assert.Contains(t, buf.String(), `"error":"boom"`)
}
