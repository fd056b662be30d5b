package appctx

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Credentials is what survives between runs: who is signed in and where.
type Credentials struct {
	BaseURL      string `yaml:"base_url,omitempty"`
	Email        string `yaml:"email,omitempty"`
	AccessToken  string `yaml:"access_token,omitempty"`
	RefreshToken string `yaml:"refresh_token,omitempty"`
	SiteID       string `yaml:"site_id,omitempty"`
}

// Empty reports whether nothing is stored.
func (c Credentials) Empty() bool {
	return c == Credentials{}
}

// FileStore persists credentials as YAML. With a passphrase the YAML is
// sealed before it touches disk.
type FileStore struct {
	Path       string
	Passphrase string
	KDF        KDFParams
}

// Load reads the stored credentials. A missing file yields empty credentials.
func (s FileStore) Load() (Credentials, error) {
	var creds Credentials
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return creds, nil
	}
	if err != nil {
		return creds, fmt.Errorf("appctx: read credentials: %w", err)
	}
	if s.Passphrase != "" {
		if data, err = unseal(s.Passphrase, data); err != nil {
			return creds, err
		}
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&creds); err != nil {
		return Credentials{}, fmt.Errorf("appctx: decode credentials: %w", err)
	}
	return creds, nil
}

// Save writes creds with owner-only permissions.
func (s FileStore) Save(creds Credentials) error {
	data, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("appctx: encode credentials: %w", err)
	}
	if s.Passphrase != "" {
		params := s.KDF
		if params == (KDFParams{}) {
			params = DefaultKDFParams
		}
		if data, err = seal(s.Passphrase, data, params); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("appctx: create credentials dir: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0o600); err != nil {
		return fmt.Errorf("appctx: write credentials: %w", err)
	}
	return nil
}

// Clear removes the stored file.
func (s FileStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("appctx: remove credentials: %w", err)
	}
	return nil
}
