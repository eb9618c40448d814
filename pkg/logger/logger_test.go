package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("desconocido"))
}

func TestNew_ProduccionEmiteJSONConServicioYComponente(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "info", Service: "comic-store-api", Out: &buf})

	cl := l.Component("orders")
	cl.Info().Str("number", "PED-20240315-AB12C").Msg("pedido creado")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "comic-store-api", entry["service"])
	assert.Equal(t, "orders", entry["component"])
	assert.Equal(t, "pedido creado", entry["message"])
}

func TestNew_NivelFiltraEventos(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "error", Out: &buf})
	l.Info().Msg("no debe salir")
	assert.Zero(t, buf.Len())
}
