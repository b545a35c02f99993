package order

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"
)

const codeLength = 6

// GenerateCode draws a six digit code uniformly from [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func IsWellFormedCode(code string) bool {
	if len(code) != codeLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// HandoffPolicy tunes how strictly codes are checked.
type HandoffPolicy struct {
	// RequirePreTerminal accepts a code only while the order awaits handoff
	// (Out for Delivery for deliveries, Ready for Pickup for pickups).
	RequirePreTerminal bool
	// CodeTTL bounds the code's lifetime from checkout. Zero disables expiry.
	CodeTTL time.Duration
}

func DefaultHandoffPolicy() HandoffPolicy {
	return HandoffPolicy{RequirePreTerminal: true}
}

// HandoffVerifier decides whether a submitted code completes an order.
type HandoffVerifier struct {
	policy HandoffPolicy
}

func NewHandoffVerifier(policy HandoffPolicy) HandoffVerifier {
	return HandoffVerifier{policy: policy}
}

// Verify returns the terminal status the order reaches if the code is accepted.
func (v HandoffVerifier) Verify(o Order, code string, now time.Time) (Status, error) {
	if !IsWellFormedCode(code) {
		return "", ErrInvalidCode
	}
	if v.policy.RequirePreTerminal && o.Status != o.DeliveryMethod.AwaitingHandoffStatus() {
		return "", fmt.Errorf("%w: status is %s", ErrNotAwaitingHandoff, o.Status)
	}
	if v.policy.CodeTTL > 0 && now.After(o.CreatedAt.Add(v.policy.CodeTTL)) {
		return "", ErrCodeExpired
	}
	if !codesEqual(o.VerificationCode, code) {
		return "", ErrCodeMismatch
	}
	return o.DeliveryMethod.HandoffStatus(), nil
}

func codesEqual(stored, submitted string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}
