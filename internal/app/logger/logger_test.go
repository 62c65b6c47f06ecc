package logger

import (
	"bytes"
	"context"
	"github.com/stretchr/testify/assert"
	"testing"
)

type testComponent struct{}

func (testComponent) LoggerComponent() string {
	return "TestComponent"
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewWithWriter(buf)

	l.Info().Msg("test message")

	assert.Contains(t, buf.String(), `"message":"test message"`)
}

func TestGet(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := NewWithWriter(buf).WithContext(context.Background())

	l := Get(ctx, testComponent{})
	l.Info().Msg("hello")
	assert.Contains(t, buf.String(), `"component":"TestComponent"`)

	buf.Reset()
	l = Get(ctx, "not a component")
	l.Info().Msg("hello")
	assert.NotContains(t, buf.String(), "component")
}

func TestWithComponent(t *testing.T) {
	buf := &bytes.Buffer{}

	l := NewWithWriter(buf).WithComponent("Ledger")
	l.Warn().Msg("x")

	assert.Contains(t, buf.String(), `"component":"Ledger"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}
