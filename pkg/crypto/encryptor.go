package crypto

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"
)

// ErrNoIdentity is returned when decrypting with an encrypt-only Encryptor.
var ErrNoIdentity = errors.New("encryptor has no private key")

// Encryptor seals report archives with age. It is built either from a private
// identity (encrypt and decrypt) or from a public recipient (encrypt only), so
// servers that only write archives never need the private key.
type Encryptor struct {
	identity  *age.X25519Identity
	recipient *age.X25519Recipient
}

// NewEncryptor parses key as an age identity ("AGE-SECRET-KEY-1...") or an
// age recipient ("age1..."). If key is empty, a new identity is generated.
func NewEncryptor(key string) (*Encryptor, error) {
	key = strings.TrimSpace(key)

	if strings.HasPrefix(key, "age1") {
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return nil, fmt.Errorf("parsing recipient: %w", err)
		}
		return &Encryptor{recipient: recipient}, nil
	}

	var identity *age.X25519Identity
	var err error

	if key == "" {
		identity, err = age.GenerateX25519Identity()
		if err != nil {
			return nil, fmt.Errorf("generating identity: %w", err)
		}
	} else {
		identity, err = age.ParseX25519Identity(key)
		if err != nil {
			return nil, fmt.Errorf("parsing identity: %w", err)
		}
	}

	return &Encryptor{
		identity:  identity,
		recipient: identity.Recipient(),
	}, nil
}

// GenerateKey generates a new private identity and returns it with its
// public recipient.
func GenerateKey() (identity string, recipient string, err error) {
	id, err := age.GenerateX25519Identity()
	if err != nil {
		return "", "", fmt.Errorf("generating identity: %w", err)
	}
	return id.String(), id.Recipient().String(), nil
}

// EncryptTo returns a writer that encrypts everything written to it into dst.
// The caller must Close it to flush the final chunk.
func (e *Encryptor) EncryptTo(dst io.Writer) (io.WriteCloser, error) {
	w, err := age.Encrypt(dst, e.recipient)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}
	return w, nil
}

// Encrypt encrypts plaintext data and returns the ciphertext
func (e *Encryptor) Encrypt(plaintext []byte) ([]byte, error) {
	var buf bytes.Buffer

	w, err := e.EncryptTo(&buf)
	if err != nil {
		return nil, err
	}

	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing plaintext: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing encryptor: %w", err)
	}

	return buf.Bytes(), nil
}

// Decrypt decrypts ciphertext and returns the plaintext
func (e *Encryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	if e.identity == nil {
		return nil, ErrNoIdentity
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), e.identity)
	if err != nil {
		return nil, fmt.Errorf("creating decryptor: %w", err)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading plaintext: %w", err)
	}

	return plaintext, nil
}

// PublicKey returns the public key (recipient) as a string
func (e *Encryptor) PublicKey() string {
	return e.recipient.String()
}

// CanDecrypt reports whether the private key is available.
func (e *Encryptor) CanDecrypt() bool {
	return e.identity != nil
}
