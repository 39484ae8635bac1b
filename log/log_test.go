package log

import (
	"bytes"
	"errors"
	stdlog "log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryLogsAndReturns(t *testing.T) {
	var buf bytes.Buffer
	prev := ErrorLog
	ErrorLog = stdlog.New(&buf, "ERROR: ", 0)
	defer func() { ErrorLog = prev }()

	wrapped := errors.New("disk full")
	err := Every("failed to save sessions: %w", wrapped)
	require.Error(t, err)
	assert.Equal(t, "failed to save sessions: disk full", err.Error())
	assert.ErrorIs(t, err, wrapped)
	assert.Contains(t, buf.String(), "failed to save sessions: disk full")
}

func TestEveryNilLoggerStillReturnsError(t *testing.T) {
	prev := ErrorLog
	ErrorLog = nil
	defer func() { ErrorLog = prev }()

	err := Every("boom %d", 7)
	require.EqualError(t, err, "boom 7")
}
