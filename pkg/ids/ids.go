// Package ids generates the short human-readable identifiers used for orders, users and products.
package ids

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const length = 9

// New returns prefix followed by 9 random upper-case base-36 characters, e.g. "ORD-K3J9X0Q2A".
func New(prefix string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(prefix) + length)
	sb.WriteString(prefix)

	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(alphabet[n.Int64()])
	}
	return sb.String(), nil
}
