package internal

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"math/big"
	"strings"
)

// NewOTP returns a numeric one-time code of the requested length, uniformly
// random over the full digit space (leading zeros included).
func NewOTP(digits int) (string, error) {
	if digits < 4 || digits > 10 {
		return "", errors.New("invalid otp digits")
	}

	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	return b.String(), nil
}

// NewToken returns an unpadded base32 token of size random bytes, used for
// opaque identifiers such as login challenge IDs.
func NewToken(size int) (string, error) {
	if size <= 0 {
		return "", errors.New("invalid token size")
	}

	raw := make([]byte, size)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	return enc.EncodeToString(raw), nil
}
