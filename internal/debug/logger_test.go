package debug

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitWriterLevels(t *testing.T) {
	defer InitWriter(io.Discard, false)

	var buf bytes.Buffer
	InitWriter(&buf, false)
	Debug("hidden")
	Error("shown", "op", "insert")
	assert.False(t, Enabled())
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "op=insert")

	buf.Reset()
	InitWriter(&buf, true)
	With("entity", "pricerule").Debug("write")
	assert.True(t, Enabled())
	assert.Contains(t, buf.String(), "entity=pricerule")
}
