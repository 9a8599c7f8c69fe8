package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCell(t *testing.T) {
	long := strings.Repeat("água ", 40)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "trim only", in: "  Curitiba \t", want: "Curitiba"},
		{name: "exactly max", in: strings.Repeat("x", 120), want: strings.Repeat("x", 120)},
		{name: "trim then truncate", in: "   " + long + "   ", want: string([]rune(strings.TrimSpace(long))[:120])},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeCell(tt.in, 120)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, utf8.RuneCountInString(got), 120)
		})
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "15", FormatValue(int64(15)))
	assert.Equal(t, "0.25", FormatValue(0.25))
	assert.Equal(t, "abc", FormatValue([]byte("abc")))
	assert.Equal(t, "true", FormatValue(true))
}
