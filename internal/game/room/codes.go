package room

import (
	"crypto/rand"
	"fmt"
)

// codeCharset is the room code alphabet. Lookalike characters (0/o, 1/l)
// are excluded so codes survive being read aloud or scribbled down.
const codeCharset = "abcdefghjkmnpqrstuvwxyz23456789"

// Generator produces short collision-checked room codes from a restricted
// charset. The code space is small, so every candidate must be checked against
// the live code set before use.
type Generator struct {
	length      int
	maxAttempts int
}

// NewGenerator creates a code generator.
//
// Precondition: length must be >= 1; maxAttempts must be >= 1.
func NewGenerator(length, maxAttempts int) *Generator {
	return &Generator{
		length:      length,
		maxAttempts: maxAttempts,
	}
}

// Allocate produces a code not currently in use. The taken predicate is
// consulted for each candidate; the caller must hold whatever lock makes that
// check stable until the code is registered.
//
// Postcondition: Returns a free code, or ErrCodesExhausted after maxAttempts
// consecutive collisions.
func (g *Generator) Allocate(taken func(code string) bool) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		code, err := g.generate()
		if err != nil {
			return "", err
		}
		if !taken(code) {
			return code, nil
		}
	}
	return "", fmt.Errorf("allocating room code after %d attempts: %w", g.maxAttempts, ErrCodesExhausted)
}

// generate produces one random candidate code.
func (g *Generator) generate() (string, error) {
	buf := make([]byte, g.length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeCharset[int(b)%len(codeCharset)]
	}
	return string(buf), nil
}
