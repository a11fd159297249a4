// utils/slug.go - Public entity identifiers
package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode"
)

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Slugify lowercases the value and collapses everything that is not a letter
// or digit into single hyphens.
func Slugify(value string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(value) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// RandomSuffix returns a random lowercase alphanumeric string of n characters.
func RandomSuffix(n int) string {
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(suffixAlphabet))))
		if err != nil {
			panic(err)
		}
		out[i] = suffixAlphabet[idx.Int64()]
	}
	return string(out)
}

// GenerateSlug builds a readable but unguessable slug: slugified name plus a
// random 6-char suffix. exists is probed until a free slug is found, so a
// collision just costs one more round trip.
func GenerateSlug(name string, exists func(slug string) bool) string {
	base := Slugify(name)
	if base == "" {
		base = "untitled"
	}
	for {
		slug := base + "-" + RandomSuffix(6)
		if !exists(slug) {
			return slug
		}
	}
}
