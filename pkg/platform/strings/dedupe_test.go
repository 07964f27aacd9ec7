package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "trims claim uris",
			input:    []string{"  http://wso2.org/claims/givenname ", "http://wso2.org/claims/lastname"},
			expected: []string{"http://wso2.org/claims/givenname", "http://wso2.org/claims/lastname"},
		},
		{
			name:     "removes duplicates preserving order",
			input:    []string{"b", "a", "b", "c", "a"},
			expected: []string{"b", "a", "c"},
		},
		{
			name:     "drops blank entries",
			input:    []string{"", "  ", "a"},
			expected: []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestTrimmedKeys(t *testing.T) {
	keys := TrimmedKeys(map[string]string{
		"http://wso2.org/claims/lastname":    "Lovelace",
		" http://wso2.org/claims/givenname ": "Ada",
		"":                                   "ignored",
	})
	assert.Equal(t, []string{"http://wso2.org/claims/givenname", "http://wso2.org/claims/lastname"}, keys)

	assert.Empty(t, TrimmedKeys[int](nil))
}
