// Package secret stores the SSH password in a passphrase-encrypted file.
//
// The file holds base64(salt || iv || ciphertext). The key is derived with
// PBKDF2-SHA256 and the payload is encrypted with AES-256 in CFB mode.
package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"
	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 16
	iterations = 100_000
	keySize    = 32
)

var ErrTooShort = errors.New("encrypted data too short")

// ErrBadPassphrase is returned when decryption yields something that cannot
// be a password. CFB has no authentication, so this is a heuristic.
var ErrBadPassphrase = errors.New("incorrect passphrase")

func Encrypt(plaintext, passphrase string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := pbkdf2.Key([]byte(passphrase), salt, iterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	ciphertext := make([]byte, len(plaintext))
	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext, []byte(plaintext))

	result := append(salt, iv...)
	result = append(result, ciphertext...)

	return base64.StdEncoding.EncodeToString(result), nil
}

func Decrypt(encryptedBase64, passphrase string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encryptedBase64))
	if err != nil {
		return "", err
	}
	if len(data) < saltSize+aes.BlockSize {
		return "", ErrTooShort
	}

	salt := data[:saltSize]
	iv := data[saltSize : saltSize+aes.BlockSize]
	ciphertext := data[saltSize+aes.BlockSize:]

	key := pbkdf2.Key([]byte(passphrase), salt, iterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	stream := cipher.NewCFBDecrypter(block, iv)
	stream.XORKeyStream(ciphertext, ciphertext)

	if !utf8.Valid(ciphertext) {
		return "", ErrBadPassphrase
	}
	return string(ciphertext), nil
}

// ReadFile decrypts the secret stored at path. Trailing newlines in the
// plaintext are dropped.
func ReadFile(fs afero.Fs, path, passphrase string) (string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", err
	}
	plain, err := Decrypt(string(data), passphrase)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(plain, "\r\n"), nil
}

// WriteFile encrypts plaintext and stores it at path with owner-only permissions.
func WriteFile(fs afero.Fs, path, plaintext, passphrase string) error {
	enc, err := Encrypt(plaintext, passphrase)
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, path, []byte(enc), 0o600)
}
