package domain

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain words", "Herinrichting Dorpsstraat", "herinrichting-dorpsstraat"},
		{"collapses separators", "Riool  --  vervanging!!", "riool-vervanging"},
		{"strips edges", "  -Brug 12- ", "brug-12"},
		{"keeps accented letters", "Café Plein", "café-plein"},
		{"only punctuation", "!!!", DefaultSlug},
		{"empty", "", DefaultSlug},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Slugify(tc.input))
		})
	}
}

func TestSlugCandidate(t *testing.T) {
	pattern := regexp.MustCompile(`^brug-(\d{1,3})$`)

	for i := 0; i < 50; i++ {
		candidate, err := SlugCandidate("brug")
		require.NoError(t, err)
		require.Regexp(t, pattern, candidate)
		assert.NotEqual(t, "brug-999", candidate)
	}
}
