package security

import (
	"golang.org/x/crypto/bcrypt"
)

// bcrypt only looks at the first 72 bytes of its input.
const maxBcryptInput = 72

// Hasher hashes and verifies passwords with bcrypt at a fixed cost.
type Hasher struct {
	cost int
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Cost() int {
	return h.cost
}

// Hash returns a salted bcrypt digest of plain.
func (h *Hasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(clamp(plain), h.cost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Verify reports whether plain matches digest. A malformed digest is a
// mismatch, not an error.
func (h *Hasher) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), clamp(plain)) == nil
}

func clamp(plain string) []byte {
	b := []byte(plain)
	if len(b) > maxBcryptInput {
		b = b[:maxBcryptInput]
	}
	return b
}
