package storage

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	key := objectKey("3:what is new in go?")
	assert.Regexp(t, regexp.MustCompile(`^searches/[0-9a-f]{32}\.json$`), key)
	assert.Equal(t, key, objectKey("3:what is new in go?"))
	assert.NotEqual(t, key, objectKey("5:what is new in go?"))
}
