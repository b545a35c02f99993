package correlation

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAccept(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		keep bool
	}{
		{name: "uuid", raw: "0b7e3c52-51f5-4a53-9a4c-1b1e3c1e2d10", keep: true},
		{name: "dashboard id", raw: "rider_dash.42", keep: true},
		{name: "empty", raw: ""},
		{name: "too long", raw: strings.Repeat("a", 65)},
		{name: "log injection", raw: "abc\nlevel=error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Accept(tt.raw)

			if tt.keep {
				assert.Equal(t, tt.raw, got)
				return
			}
			_, err := uuid.Parse(got)
			assert.NoError(t, err)
		})
	}
}

func TestFromContext(t *testing.T) {
	assert.Empty(t, FromContext(context.Background()))
	assert.Equal(t, "corr-1", FromContext(WithID(context.Background(), "corr-1")))
}
