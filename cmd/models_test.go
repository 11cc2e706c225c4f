package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatModels(t *testing.T) {
	var buf bytes.Buffer
	formatModels(&buf)
	out := buf.String()

	assert.Contains(t, out, "surface-water")
	assert.Contains(t, out, "terrain")
	assert.Contains(t, out, "proximity")
	assert.Contains(t, out, "cost-distance")
	assert.Contains(t, out, "line-of-sight")
}
