package ids

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-[0-9A-Z]{9}$`)

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id, err := New("ORD-")
		require.NoError(t, err)
		assert.Regexp(t, pattern, id)
		seen[id] = struct{}{}
	}

	assert.Greater(t, len(seen), 95)
}
