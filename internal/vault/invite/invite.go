// Package invite generates and normalizes vault invite codes.
package invite

import (
	"crypto/rand"
	"fmt"
	"strings"

	dErrors "covault/pkg/domain-errors"
)

const (
	// Alphabet is the set of characters an invite code is drawn from.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// Length is the number of characters in a code.
	Length = 6
	// MaxAttempts bounds regeneration when a fresh code collides.
	MaxAttempts = 8
)

// rejection threshold: the largest multiple of len(Alphabet) that fits in a byte.
const maxByte = 256 - (256 % len(Alphabet))

// Generator produces invite codes.
type Generator interface {
	Generate() (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func() (string, error)

func (f GeneratorFunc) Generate() (string, error) { return f() }

// Random draws codes from crypto/rand with rejection sampling so every
// character is equally likely.
type Random struct{}

func (Random) Generate() (string, error) {
	out := make([]byte, 0, Length)
	buf := make([]byte, Length*2)
	for len(out) < Length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("could not generate invite code: %w", err)
		}
		for _, b := range buf {
			if int(b) >= maxByte {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == Length {
				break
			}
		}
	}
	return string(out), nil
}

// Normalize trims and uppercases user input.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Unique generates a code for which taken returns false, retrying up to
// MaxAttempts times.
func Unique(gen Generator, taken func(string) bool) (string, error) {
	for range MaxAttempts {
		code, err := gen.Generate()
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate invite code")
		}
		if !taken(code) {
			return code, nil
		}
	}
	return "", dErrors.Newf(dErrors.CodeInternal, "no unique invite code after %d attempts", MaxAttempts)
}
