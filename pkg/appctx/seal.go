package appctx

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const sealFormatVersion = 1

// ErrWrongPassphrase is returned when a sealed file cannot be opened.
var ErrWrongPassphrase = errors.New("appctx: wrong passphrase or corrupted credentials")

// KDFParams are the scrypt cost parameters stored next to the ciphertext.
type KDFParams struct {
	N, R, P int
}

// DefaultKDFParams is used for new sealed files.
var DefaultKDFParams = KDFParams{N: 1 << 15, R: 8, P: 1}

type sealed struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Cipher []byte `json:"cipher"`
}

func seal(passphrase string, raw []byte, params KDFParams) ([]byte, error) {
	var salt [16]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, fmt.Errorf("appctx: salt: %w", err)
	}
	key, err := scrypt.Key([]byte(passphrase), salt[:], params.N, params.R, params.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("appctx: derive key: %w", err)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	// the key is bound to a fresh salt, so a zero nonce is never reused
	var nonce [chacha20poly1305.NonceSize]byte
	return json.Marshal(sealed{
		V:      sealFormatVersion,
		Salt:   salt[:],
		N:      params.N,
		R:      params.R,
		P:      params.P,
		Cipher: aead.Seal(nil, nonce[:], raw, salt[:]),
	})
}

func unseal(passphrase string, data []byte) ([]byte, error) {
	var blob sealed
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("appctx: decode sealed credentials: %w", err)
	}
	if blob.V > sealFormatVersion {
		return nil, fmt.Errorf("appctx: unsupported sealed format %d", blob.V)
	}
	key, err := scrypt.Key([]byte(passphrase), blob.Salt, blob.N, blob.R, blob.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("appctx: derive key: %w", err)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	raw, err := aead.Open(nil, nonce[:], blob.Cipher, blob.Salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return raw, nil
}
