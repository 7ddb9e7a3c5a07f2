package secret

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const longSecret = "correct-horse-battery-staple/correct-horse-battery-staple/0123456789"

func TestEncryptDecrypt(t *testing.T) {
	enc, err := Encrypt(longSecret, "passphrase")
	require.NoError(t, err)
	require.NotContains(t, enc, longSecret)

	plain, err := Decrypt(enc, "passphrase")
	require.NoError(t, err)
	require.Equal(t, longSecret, plain)
}

func TestEncryptUsesFreshSalt(t *testing.T) {
	a, err := Encrypt("same", "passphrase")
	require.NoError(t, err)
	b, err := Encrypt("same", "passphrase")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestDecryptWrongPassphrase(t *testing.T) {
	enc, err := Encrypt(longSecret, "passphrase")
	require.NoError(t, err)

	_, err = Decrypt(enc, "wrong")
	require.ErrorIs(t, err, ErrBadPassphrase)
}

func TestDecryptMalformed(t *testing.T) {
	_, err := Decrypt("%%%", "passphrase")
	require.Error(t, err)

	short := base64.StdEncoding.EncodeToString([]byte("too short"))
	_, err = Decrypt(short, "passphrase")
	require.ErrorIs(t, err, ErrTooShort)
}

func TestReadWriteFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, WriteFile(fs, "/etc/vpsfix/secret", longSecret+"\n", "passphrase"))

	info, err := fs.Stat("/etc/vpsfix/secret")
	require.NoError(t, err)
	require.Equal(t, "-rw-------", info.Mode().Perm().String())

	raw, err := afero.ReadFile(fs, "/etc/vpsfix/secret")
	require.NoError(t, err)
	require.False(t, strings.Contains(string(raw), longSecret))

	got, err := ReadFile(fs, "/etc/vpsfix/secret", "passphrase")
	require.NoError(t, err)
	require.Equal(t, longSecret, got)

	_, err = ReadFile(fs, "/etc/vpsfix/missing", "passphrase")
	require.Error(t, err)
}
