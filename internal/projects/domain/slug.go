package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

const (
	DefaultSlug         = "project"
	MaxSlugAttempts     = 5
	slugSuffixExclusive = 999
)

// Slugify lower-cases name and collapses every run of characters that are not
// letters or digits into a single "-", without leading or trailing separators.
func Slugify(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	if b.Len() == 0 {
		return DefaultSlug
	}
	return b.String()
}

// SlugCandidate derives a collision retry from base, e.g. "brug-herstel-417".
func SlugCandidate(base string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(slugSuffixExclusive))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d", base, n.Int64()), nil
}
