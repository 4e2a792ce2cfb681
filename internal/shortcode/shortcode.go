// Package shortcode generates the public tokens printed on QR labels.
package shortcode

import (
	"crypto/rand"
	"math/big"
)

// Alphabet omits 0/O/1/I/L so codes survive hand transcription from a
// printed label.
const Alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// DefaultLength of 6 over a 31-char alphabet gives ~887M combinations,
// plenty of headroom for a corpus in the low millions. Collisions are
// still possible; the registry retries on the unique constraint.
const DefaultLength = 6

// Generator produces fixed-length uppercase short codes.
type Generator struct {
	length int
}

// NewGenerator creates a generator. Non-positive lengths fall back to
// DefaultLength.
func NewGenerator(length int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{length: length}
}

// Generate returns a new random short code. It is pure: no I/O, no
// uniqueness guarantee.
func (g *Generator) Generate() string {
	max := big.NewInt(int64(len(Alphabet)))
	buf := make([]byte, g.length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is
			// broken; nothing sensible to do but panic.
			panic(err)
		}
		buf[i] = Alphabet[n.Int64()]
	}
	return string(buf)
}
