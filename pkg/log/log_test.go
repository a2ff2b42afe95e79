package log_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowtrack-io/flowtrack/pkg/log"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()

	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer

	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))

	return &buf
}

func TestWithModule(t *testing.T) {
	buf := capture(t)

	log.WithModule("reporter").Info("tracking instance")

	assert.Contains(t, buf.String(), "module=reporter")
}

func TestWithNode(t *testing.T) {
	buf := capture(t)

	log.WithNode("flowtrack-tracker", "tracker-1a2b").Info("starting")

	output := buf.String()
	assert.Contains(t, output, "module=flowtrack-tracker")
	assert.Contains(t, output, "node_id=tracker-1a2b")
}
