package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/ssh"
)

// EncryptionMethod defines how the AES key is derived
type EncryptionMethod string

const (
	EncryptionSSHKey EncryptionMethod = "ssh_key"
)

// Fixed message signed with the SSH key to derive a stable AES key.
// Changing this invalidates every existing encrypted credential file.
const keyDerivationMessage = "mentis-credential-encryption-v1"

// EncryptionManager handles AES-GCM encryption with a key derived
// from the user's SSH private key
type EncryptionManager struct {
	method     EncryptionMethod
	sshKeyPath string
	passphrase string
	aesKey     []byte
}

// NewEncryptionManager creates a new encryption manager
func NewEncryptionManager(method EncryptionMethod, sshKeyPath string) *EncryptionManager {
	return &EncryptionManager{
		method:     method,
		sshKeyPath: sshKeyPath,
	}
}

// SetPassphrase sets the passphrase used to decrypt the SSH key
func (e *EncryptionManager) SetPassphrase(passphrase string) {
	e.passphrase = passphrase
}

// Initialize derives the AES key from the SSH key. Must be called
// before Encrypt or Decrypt.
func (e *EncryptionManager) Initialize() error {
	if e.method != EncryptionSSHKey {
		return fmt.Errorf("unsupported encryption method: %s", e.method)
	}

	signer, err := loadSSHSigner(e.sshKeyPath, e.passphrase)
	if err != nil {
		return err
	}

	key, err := deriveAESKey(signer)
	if err != nil {
		return err
	}

	e.aesKey = key
	return nil
}

// Encrypt encrypts plaintext with AES-256-GCM. The nonce is prepended
// to the returned ciphertext.
func (e *EncryptionManager) Encrypt(plaintext []byte) ([]byte, error) {
	if e.aesKey == nil {
		return nil, errors.New("encryption manager not initialized")
	}

	block, err := aes.NewCipher(e.aesKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt decrypts ciphertext produced by Encrypt
func (e *EncryptionManager) Decrypt(ciphertext []byte) ([]byte, error) {
	if e.aesKey == nil {
		return nil, errors.New("encryption manager not initialized")
	}

	block, err := aes.NewCipher(e.aesKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, data := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return plaintext, nil
}

// IsSSHKeyEncrypted reports whether the SSH key at path requires a passphrase
func IsSSHKeyEncrypted(path string) (bool, error) {
	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return false, fmt.Errorf("failed to read SSH key: %w", err)
	}

	_, err = ssh.ParsePrivateKey(data)
	if err == nil {
		return false, nil
	}

	var passErr *ssh.PassphraseMissingError
	if errors.As(err, &passErr) {
		return true, nil
	}

	return false, fmt.Errorf("failed to parse SSH key: %w", err)
}

func loadSSHSigner(path string, passphrase string) (ssh.Signer, error) {
	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read SSH key: %w", err)
	}

	if passphrase != "" {
		signer, err := ssh.ParsePrivateKeyWithPassphrase(data, []byte(passphrase))
		if err != nil {
			return nil, fmt.Errorf("failed to parse SSH key with passphrase: %w", err)
		}
		return signer, nil
	}

	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		var passErr *ssh.PassphraseMissingError
		if errors.As(err, &passErr) {
			return nil, errors.New("SSH key is passphrase-protected, passphrase required")
		}
		return nil, fmt.Errorf("failed to parse SSH key: %w", err)
	}

	return signer, nil
}

// deriveAESKey signs a fixed message with the SSH key and hashes the
// signature blob to a 32-byte AES key. Deterministic for RSA and Ed25519
// keys, which is what makes the derived key stable across runs.
func deriveAESKey(signer ssh.Signer) ([]byte, error) {
	sig, err := signer.Sign(rand.Reader, []byte(keyDerivationMessage))
	if err != nil {
		return nil, fmt.Errorf("failed to sign derivation message: %w", err)
	}

	key := sha256.Sum256(sig.Blob)
	return key[:], nil
}
