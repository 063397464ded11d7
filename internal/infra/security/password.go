package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	passwordUppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	passwordLowercase = "abcdefghijklmnopqrstuvwxyz"
	passwordDigits    = "0123456789"
	passwordSpecial   = "!@#$%^&*()_+-=[]{}|;:,.<>?/~`"

	// DefaultPasswordLength is the length of generated initial credentials.
	DefaultPasswordLength = 12
)

// GeneratePassword produces a random password of the requested length
// containing at least one uppercase letter, one lowercase letter, one digit,
// and one special character.
func GeneratePassword(length int) (string, error) {
	if length < 4 {
		return "", fmt.Errorf("password length must be at least 4, got %d", length)
	}

	chars := make([]byte, 0, length)
	for _, class := range []string{passwordUppercase, passwordLowercase, passwordDigits, passwordSpecial} {
		c, err := randomByte(class)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	combined := passwordUppercase + passwordLowercase + passwordDigits + passwordSpecial
	for len(chars) < length {
		c, err := randomByte(combined)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	if err := shuffle(chars); err != nil {
		return "", err
	}

	return string(chars), nil
}

// RandomDigit returns a single random decimal digit as a string, used to
// disambiguate colliding login names.
func RandomDigit() (string, error) {
	c, err := randomByte(passwordDigits)
	if err != nil {
		return "", err
	}
	return string(c), nil
}

func randomByte(alphabet string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, fmt.Errorf("read random: %w", err)
	}
	return alphabet[n.Int64()], nil
}

func shuffle(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return fmt.Errorf("read random: %w", err)
		}
		j := n.Int64()
		b[i], b[j] = b[j], b[i]
	}
	return nil
}
