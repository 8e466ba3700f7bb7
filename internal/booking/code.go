// Package booking generates human-shareable booking codes for bets.
package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Alphabet excludes visually ambiguous characters (0/O, 1/I).
const Alphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

var segmentLengths = [3]int{6, 3, 6}

// NewCode returns a fresh 3-segment booking code (6-3-6 characters).
// Codes are cosmetic identifiers, not security tokens; uniqueness is
// enforced by the storage layer, not here.
func NewCode() (string, error) {
	segments := make([]string, 0, len(segmentLengths))
	for _, n := range segmentLengths {
		seg, err := randomSegment(n)
		if err != nil {
			return "", fmt.Errorf("generate booking code: %w", err)
		}
		segments = append(segments, seg)
	}
	return strings.Join(segments, "-"), nil
}

func randomSegment(length int) (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(Alphabet)))
	for i := 0; i < length; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(Alphabet[idx.Int64()])
	}
	return b.String(), nil
}
