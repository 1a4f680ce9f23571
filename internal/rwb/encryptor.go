package rwb

import "io"

// Encryptor encrypts database backups before vault upload. Decryption
// unlocks the private key with the passphrase on each call; restores are
// rare enough that this beats holding unlocked key material.
type Encryptor interface {
	// Setup generates and stores a new key pair, protecting the private
	// key with the passphrase.
	Setup(passphrase string) error

	// IsConfigured reports whether a key pair is present.
	IsConfigured() bool

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Decrypt reads ciphertext from r and writes plaintext to w, using the
	// passphrase to unlock the private key.
	Decrypt(r io.Reader, w io.Writer, passphrase string) error
}
