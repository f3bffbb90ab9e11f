package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsRenderTypedValues(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{zl: zerolog.New(&buf)}

	l.Info("trade closed",
		Int64("id", 7),
		Float64("pnl", -12.5),
		Bool("ok", true),
		Strings("sources", []string{"gemini", "groq"}),
		Error(errors.New("boom")),
	)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "trade closed", got["message"])
	assert.Equal(t, float64(7), got["id"])
	assert.Equal(t, -12.5, got["pnl"])
	assert.Equal(t, true, got["ok"])
	assert.Equal(t, "gemini, groq", got["sources"])
	assert.Equal(t, "boom", got["error"])
}

func TestWithCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	l := (&Logger{zl: zerolog.New(&buf)}).With(String("component", "journal"), Float64("ratio", 1.5))

	l.Warn("x")

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "journal", got["component"])
	assert.Equal(t, 1.5, got["ratio"])
}
