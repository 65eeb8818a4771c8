// Package shortcode generates random short codes.
package shortcode

import gonanoid "github.com/matoous/go-nanoid/v2"

const (
	// Alphabet holds the 62 characters a short code is drawn from.
	Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// Length is the number of characters in every short code.
	Length = 6
)

// reserved codes collide with static routes and could never be resolved.
var reserved = map[string]struct{}{
	"health": {},
}

// Generate returns a random code of Length characters, each picked uniformly
// from Alphabet. Uniqueness is not guaranteed.
func Generate() string {
	for {
		code := gonanoid.MustGenerate(Alphabet, Length)
		if _, ok := reserved[code]; !ok {
			return code
		}
	}
}
