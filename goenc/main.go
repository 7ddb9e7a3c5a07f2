// Command goenc encrypts or decrypts a vpsfix secret file in place.
package main

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"vpsfix/secret"
)

const maxAttempts = 3

func promptPassphrase(confirm bool) (string, error) {
	fmt.Print("Enter passphrase: ")
	pw1, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}

	if confirm {
		fmt.Print("Confirm passphrase: ")
		pw2, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", err
		}
		if string(pw1) != string(pw2) {
			return "", errors.New("passphrases do not match")
		}
	}

	return string(pw1), nil
}

func encryptFile(fs afero.Fs, path string) error {
	pw, err := promptPassphrase(true)
	if err != nil {
		return fmt.Errorf("passphrase: %w", err)
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	return secret.WriteFile(fs, path, string(data), pw)
}

func decryptFile(fs afero.Fs, path string) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	for i := 0; i < maxAttempts; i++ {
		pw, err := promptPassphrase(false)
		if err != nil {
			return fmt.Errorf("passphrase: %w", err)
		}
		plain, err := secret.Decrypt(string(data), pw)
		if err == nil {
			return afero.WriteFile(fs, path, []byte(plain), 0o600)
		}
		fmt.Println("Incorrect passphrase. Try again.")
	}
	return errors.New("maximum passphrase attempts reached")
}

func main() {
	var encryptPath, decryptPath string

	pflag.StringVarP(&encryptPath, "encrypt", "e", "", "Encrypt the specified secret file")
	pflag.StringVarP(&decryptPath, "decrypt", "d", "", "Decrypt the specified secret file")
	pflag.Parse()

	if (encryptPath == "" && decryptPath == "") || (encryptPath != "" && decryptPath != "") {
		fmt.Println("Usage:")
		fmt.Println("  -e, --encrypt <path>   Encrypt a secret file")
		fmt.Println("  -d, --decrypt <path>   Decrypt a secret file")
		os.Exit(1)
	}

	fs := afero.NewOsFs()
	if encryptPath != "" {
		if err := encryptFile(fs, encryptPath); err != nil {
			logrus.Fatalf("Encryption failed: %v", err)
		}
		fmt.Println("Encryption successful.")
		return
	}

	if err := decryptFile(fs, decryptPath); err != nil {
		logrus.Fatalf("Decryption failed: %v", err)
	}
	fmt.Println("Decryption successful.")
}
