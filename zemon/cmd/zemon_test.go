package main

import (
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zemon/zemon/utils/jsonutils"
)

func TestCopyStream_PlainAnswer(t *testing.T) {
	var out strings.Builder
	err := copyStream(&out, iotest.OneByteReader(strings.NewReader("a {b} c, and {\"e\": 1}")))
	require.NoError(t, err)
	assert.Equal(t, "a {b} c, and {\"e\": 1}", out.String())
}

func TestCopyStream_ErrorChunkAfterPartialAnswer(t *testing.T) {
	stream := "🔍 Research Summary:\n- s\n" + string(jsonutils.ErrorChunk("high traffic"))

	var out strings.Builder
	err := copyStream(&out, strings.NewReader(stream))
	require.EqualError(t, err, "high traffic")
	assert.Equal(t, "🔍 Research Summary:\n- s\n", out.String())

	out.Reset()
	err = copyStream(&out, iotest.OneByteReader(strings.NewReader(stream)))
	require.EqualError(t, err, "high traffic")
	assert.Equal(t, "🔍 Research Summary:\n- s\n", out.String())
}

func TestCopyStream_TruncatedErrorObject(t *testing.T) {
	var out strings.Builder
	err := copyStream(&out, strings.NewReader(`partial{"error":"cut`))
	require.EqualError(t, err, "stream failed")
	assert.Equal(t, "partial", out.String())
}

func TestHeldBack(t *testing.T) {
	assert.Equal(t, 0, heldBack("plain"))
	assert.Equal(t, 1, heldBack("text {"))
	assert.Equal(t, 4, heldBack(`text {"er`))
	assert.Equal(t, 0, heldBack("text {x"))
}
