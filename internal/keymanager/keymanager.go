// Package keymanager loads the ECDSA keypair used to sign JWTs. With
// Vault enabled the key lives in the KV store and survives restarts,
// so tokens stay valid across deployments; otherwise the key comes
// from the configured PEM secret.
package keymanager

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"

	"dealdesk/internal/vault"
)

// KeyManager resolves the JWT signing keypair
type KeyManager struct {
	vault   *vault.Client
	keyPath string
}

// NewKeyManager creates a KeyManager backed by the given Vault client
func NewKeyManager(vaultClient *vault.Client, keyPath string) *KeyManager {
	return &KeyManager{
		vault:   vaultClient,
		keyPath: keyPath,
	}
}

// SigningKey returns the persistent signing keypair, generating and
// storing a new one in Vault on first use.
func (km *KeyManager) SigningKey() (*ecdsa.PrivateKey, *ecdsa.PublicKey, error) {
	data, err := km.vault.GetSecret(km.keyPath)
	if err != nil {
		if !errors.Is(err, vault.ErrSecretNotFound) {
			return nil, nil, fmt.Errorf("failed to load signing key: %w", err)
		}
		return km.generateAndStore()
	}

	pemStr, ok := data["private_key_pem"].(string)
	if !ok {
		return nil, nil, fmt.Errorf("signing key secret has no private_key_pem field")
	}

	privateKey, err := ParsePrivateKeyPEM(pemStr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse stored signing key: %w", err)
	}

	return privateKey, &privateKey.PublicKey, nil
}

// generateAndStore creates a fresh P-256 keypair and persists it
func (km *KeyManager) generateAndStore() (*ecdsa.PrivateKey, *ecdsa.PublicKey, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate signing key: %w", err)
	}

	pemStr, err := EncodePrivateKeyPEM(privateKey)
	if err != nil {
		return nil, nil, err
	}

	if err := km.vault.StoreSecret(km.keyPath, map[string]interface{}{
		"private_key_pem": pemStr,
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to store signing key: %w", err)
	}

	slog.Info("Generated new JWT signing key", "path", km.keyPath)

	return privateKey, &privateKey.PublicKey, nil
}

// ParsePrivateKeyPEM decodes a PEM-encoded EC private key
func ParsePrivateKeyPEM(pemStr string) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	return x509.ParseECPrivateKey(block.Bytes)
}

// EncodePrivateKeyPEM encodes an EC private key to PEM
func EncodePrivateKeyPEM(key *ecdsa.PrivateKey) (string, error) {
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return "", fmt.Errorf("failed to marshal signing key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})), nil
}
