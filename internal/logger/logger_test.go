package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf, "info")

	log.Info().Str("account", "#cash").Msg("test message")
	log.Debug().Msg("hidden")

	out := buf.String()
	require.Contains(t, out, "test message")
	require.Contains(t, out, `"account":"#cash"`)
	require.NotContains(t, out, "hidden")
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	require.Equal(t, zerolog.WarnLevel, ParseLevel(" warn "))
	require.Equal(t, zerolog.InfoLevel, ParseLevel("loud"))
	require.Equal(t, zerolog.InfoLevel, ParseLevel(""))
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf, "debug"))

	l := FromContext(ctx)
	l.Info().Msg("test")
	require.Contains(t, buf.String(), "test")
}

func TestFromContextWithoutLogger(t *testing.T) {
	l := FromContext(context.Background())
	require.Equal(t, zerolog.Disabled, l.GetLevel())
}
