package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAdverse(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		adverse bool
	}{
		{"moderate rain at times", 1186, true},
		{"moderate rain", 1189, true},
		{"heavy rain at times", 1192, true},
		{"heavy rain", 1195, true},
		{"sunny", 1000, false},
		{"partly cloudy", 1003, false},
		{"patchy rain possible", 1063, false},
		{"zero code", 0, false},
		{"negative code", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.adverse, IsAdverse(tt.code))
		})
	}
}
