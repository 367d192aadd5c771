package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// AES-256-GCM helpers for sensitive fields (banking account/routing numbers).
// Encoded form: v1:gcm:<iv>:<ciphertext>:<tag>, all segments base64.

const encPrefix = "v1:gcm:"

var (
	ErrKeyNotSet         = errors.New("encryption key is not set")
	ErrKeySize           = errors.New("encryption key must be 32 bytes (base64)")
	ErrUnsupportedFormat = errors.New("unsupported encryption format")
)

// FieldCipher encrypts and decrypts individual database fields.
type FieldCipher struct {
	key []byte
}

// NewFieldCipher parses a base64-encoded 32-byte key.
func NewFieldCipher(b64Key string) (*FieldCipher, error) {
	if b64Key == "" {
		return nil, ErrKeyNotSet
	}
	key, err := base64.StdEncoding.DecodeString(b64Key)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, ErrKeySize
	}
	return &FieldCipher{key: key}, nil
}

// Encrypt seals plaintext with a fresh 12-byte IV.
func (f *FieldCipher) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(f.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	iv := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}

	// Seal appends the 16-byte tag to the ciphertext; split it back out so
	// the encoded form matches v1:gcm:<iv>:<ct>:<tag>.
	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	tagStart := len(sealed) - gcm.Overhead()
	ct, tag := sealed[:tagStart], sealed[tagStart:]

	return encPrefix +
		base64.StdEncoding.EncodeToString(iv) + ":" +
		base64.StdEncoding.EncodeToString(ct) + ":" +
		base64.StdEncoding.EncodeToString(tag), nil
}

// Decrypt reverses Encrypt, authenticating the tag.
func (f *FieldCipher) Decrypt(encoded string) (string, error) {
	if !strings.HasPrefix(encoded, encPrefix) {
		return "", ErrUnsupportedFormat
	}
	parts := strings.Split(encoded, ":")
	if len(parts) != 5 {
		return "", ErrUnsupportedFormat
	}

	iv, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return "", ErrUnsupportedFormat
	}
	ct, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return "", ErrUnsupportedFormat
	}
	tag, err := base64.StdEncoding.DecodeString(parts[4])
	if err != nil {
		return "", ErrUnsupportedFormat
	}

	block, err := aes.NewCipher(f.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, iv, append(ct, tag...), nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// Mask strips everything but the last `visible` digits of a value.
func Mask(original string, visible int) string {
	var digits strings.Builder
	for _, r := range original {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) <= visible {
		return d
	}
	return strings.Repeat("*", len(d)-visible) + d[len(d)-visible:]
}
