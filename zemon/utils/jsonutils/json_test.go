package jsonutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorChunkRoundTrip(t *testing.T) {
	chunk := string(ErrorChunk(`quota "exceeded"`))
	assert.True(t, IsErrorChunk(chunk))

	before, msg, ok := SplitErrorChunk("partial text" + chunk)
	assert.True(t, ok)
	assert.Equal(t, "partial text", before)
	assert.Equal(t, `quota "exceeded"`, msg)
}

func TestSplitErrorChunk_NoError(t *testing.T) {
	before, msg, ok := SplitErrorChunk("plain answer with {braces}")
	assert.False(t, ok)
	assert.Empty(t, msg)
	assert.Equal(t, "plain answer with {braces}", before)
	assert.False(t, IsErrorChunk("plain"))
}
